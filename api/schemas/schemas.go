// Package schemas defines the shared contract types exchanged between the
// generation stages, the model invocation layer, the ranking engine and the
// orchestrator. Keeping them in one leaf package avoids import cycles between
// the internal components that produce and consume them.
package schemas

import "time"

// ProgressFn receives advisory progress updates from a running stage.
// Implementations must be safe for concurrent use; percent is in [0,100].
// Progress reporting never influences control flow.
type ProgressFn func(stage string, percent float64)

// Preferences carries the optional styling hints a caller may attach to a run.
type Preferences struct {
	Style    string `json:"style,omitempty"`
	Tone     string `json:"tone,omitempty"`
	Audience string `json:"audience,omitempty"`
}

// RunContext identifies one end-to-end generation run and is shared by
// reference across every stage of that run. It is immutable once built:
// stages read it, they never write it.
type RunContext struct {
	RunID       string
	JobID       string
	OwnerID     string
	Niche       string
	Preferences Preferences
	Metadata    map[string]string

	// OnProgress is the optional side channel for fractional progress.
	// May be nil; stages must report through Progress, which is nil safe.
	OnProgress ProgressFn
}

// Progress forwards an advisory progress update if a callback is attached.
func (rc *RunContext) Progress(stage string, percent float64) {
	if rc == nil || rc.OnProgress == nil {
		return
	}
	rc.OnProgress(stage, percent)
}

// StageResult is the only value a stage invocation hands back to its caller.
// Exactly one of Output (Success=true) or Err (Success=false) is meaningful.
type StageResult[T any] struct {
	Success  bool
	Output   T
	Err      string
	Elapsed  time.Duration
	Metadata map[string]any
}

// GenesisResult is the single aggregate outcome of an orchestrated run.
// It is finalized exactly once, at the end of the run, and is not persisted
// by the core; durable storage belongs to the surrounding services.
type GenesisResult struct {
	RunID       string `json:"run_id"`
	JobID       string `json:"job_id"`
	Success     bool   `json:"success"`
	FailedStage string `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`
}
