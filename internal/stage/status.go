package stage

// Status is the lifecycle of one stage invocation.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition enforces the stage lifecycle: idle->running on invoke,
// running->completed on normal return, running->failed on any error.
// Terminal states cannot be exited.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusIdle:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}
