// Package orchestrator sequences the generation stages of one run. It is
// injected with fully configured stages via interfaces, making it decoupled
// and testable; it performs no retries of its own — retry policy belongs to
// the model invocation layer beneath the stages.
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storeforge/storeforge/api/schemas"
	"github.com/storeforge/storeforge/internal/stage"
)

// State is the orchestrator's position in the run state machine.
type State string

const (
	StateStarted      State = "started"
	StateBrandDone    State = "brand_done"
	StateSourcingDone State = "sourcing_done"
	StateCopyDone     State = "copy_done"
	StateFailed       State = "failed"
	StateSucceeded    State = "succeeded"
)

// Stage type aliases pin down the concrete instantiations the orchestrator
// sequences; fakes in tests implement the same interfaces.
type (
	BrandStage    = stage.Stage[schemas.BrandInput, schemas.BrandIdentity]
	SourcingStage = stage.Stage[schemas.SourcingInput, schemas.SourcingOutput]
	CopyStage     = stage.Stage[schemas.CopyInput, schemas.CopyOutput]
)

// Options carries the per-run knobs the orchestrator threads into stage
// inputs.
type Options struct {
	// MaxCandidates caps the sourcing stage's winner list.
	MaxCandidates int
	// SupplierCredentials are opaque tokens for connected suppliers.
	SupplierCredentials map[string]string
	// OnArtifacts, when set, receives the assembled storefront content after
	// a successful run. Durable storage belongs to the caller; the core does
	// not persist anything. Never called for failed runs.
	OnArtifacts func(schemas.StoreArtifacts)
}

// Orchestrator runs brand -> sourcing -> copywriting for one run at a time.
// It is stateless between calls and safe to reuse across runs.
type Orchestrator struct {
	logger   *zap.Logger
	brand    BrandStage
	sourcing SourcingStage
	copy     CopyStage
}

// New builds an orchestrator over the three stages.
func New(logger *zap.Logger, brand BrandStage, sourcing SourcingStage, copy CopyStage) (*Orchestrator, error) {
	if logger == nil || brand == nil || sourcing == nil || copy == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	return &Orchestrator{
		logger:   logger.Named("orchestrator"),
		brand:    brand,
		sourcing: sourcing,
		copy:     copy,
	}, nil
}

// Run executes the full generation sequence. Stages run strictly one after
// another; the first failure is terminal and later stages are never invoked.
// Cancellation is checked cooperatively between stages — a stage already in
// flight runs to completion or its own timeout.
func (o *Orchestrator) Run(ctx context.Context, rc *schemas.RunContext, opts Options) schemas.GenesisResult {
	log := o.logger.With(zap.String("run_id", rc.RunID), zap.String("job_id", rc.JobID))
	log.Info("Run started", zap.String("niche", rc.Niche))

	state := StateStarted

	fail := func(stageName, msg string) schemas.GenesisResult {
		state = StateFailed
		log.Warn("Run failed",
			zap.String("state", string(state)),
			zap.String("stage", stageName),
			zap.String("error", msg))
		return schemas.GenesisResult{
			RunID:       rc.RunID,
			JobID:       rc.JobID,
			Success:     false,
			FailedStage: stageName,
			Error:       msg,
		}
	}

	// -- Brand --
	brandRes := stage.Run(ctx, o.brand, schemas.BrandInput{
		Niche:       rc.Niche,
		Preferences: rc.Preferences,
	}, rc, o.logger)
	if !brandRes.Success {
		return fail(o.brand.Name(), brandRes.Err)
	}
	state = StateBrandDone
	log.Info("Brand stage done", zap.Duration("elapsed", brandRes.Elapsed))

	if err := ctx.Err(); err != nil {
		return fail(o.sourcing.Name(), fmt.Sprintf("run cancelled before sourcing: %v", err))
	}

	// -- Sourcing --
	maxCandidates := opts.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 10
	}
	sourcingRes := stage.Run(ctx, o.sourcing, schemas.SourcingInput{
		Niche:               rc.Niche,
		MaxCandidates:       maxCandidates,
		SupplierCredentials: opts.SupplierCredentials,
	}, rc, o.logger)
	if !sourcingRes.Success {
		return fail(o.sourcing.Name(), sourcingRes.Err)
	}
	state = StateSourcingDone
	log.Info("Sourcing stage done",
		zap.Duration("elapsed", sourcingRes.Elapsed),
		zap.Int("winners", len(sourcingRes.Output.Winners)))

	if err := ctx.Err(); err != nil {
		return fail(o.copy.Name(), fmt.Sprintf("run cancelled before copywriting: %v", err))
	}

	// -- Copywriting --
	copyRes := stage.Run(ctx, o.copy, schemas.CopyInput{
		Brand:    brandRes.Output,
		Products: sourcingRes.Output.Winners,
	}, rc, o.logger)
	if !copyRes.Success {
		return fail(o.copy.Name(), copyRes.Err)
	}
	state = StateCopyDone
	log.Info("Copywriting stage done", zap.Duration("elapsed", copyRes.Elapsed))

	state = StateSucceeded
	log.Info("Run succeeded", zap.String("state", string(state)))

	if opts.OnArtifacts != nil {
		opts.OnArtifacts(schemas.StoreArtifacts{
			Brand:       brandRes.Output,
			Winners:     sourcingRes.Output.Winners,
			Pages:       copyRes.Output.Pages,
			ProductCopy: copyRes.Output.ProductCopy,
		})
	}
	return schemas.GenesisResult{
		RunID:   rc.RunID,
		JobID:   rc.JobID,
		Success: true,
	}
}
