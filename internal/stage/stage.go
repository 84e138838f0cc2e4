// Package stage defines the contract every generation stage satisfies and
// the runner that enforces its lifecycle. A stage's internal logic may fail
// in any way it likes; nothing escapes the Run boundary except a typed
// StageResult.
package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/storeforge/storeforge/api/schemas"
)

// Stage is one pluggable generation step. Implementations declare a stable
// name and wrap their own model calls; the runner owns status, timing and
// failure conversion.
type Stage[I, O any] interface {
	// Name is the stable identifier used in logs, progress events and
	// failure attribution.
	Name() string
	// Description is a short human readable summary.
	Description() string
	// Generate performs the stage's work. Returned errors are converted into
	// failed StageResults by the runner; implementations should wrap causes
	// with context rather than inventing result types.
	Generate(ctx context.Context, in I, rc *schemas.RunContext) (O, error)
}

// validate is shared across all Run instantiations; the validator is safe
// for concurrent use and caches struct metadata.
var validate = validator.New()

// Run invokes a stage under the standard lifecycle: input validation, status
// transitions, wall-clock timing, panic containment. It never panics and
// never returns an error; failures are carried inside the StageResult.
func Run[I, O any](ctx context.Context, st Stage[I, O], in I, rc *schemas.RunContext, logger *zap.Logger) schemas.StageResult[O] {
	log := logger.Named(st.Name())

	status := StatusIdle
	transition := func(next Status) {
		if !status.CanTransition(next) {
			log.Warn("Ignoring invalid stage status transition",
				zap.String("from", string(status)),
				zap.String("to", string(next)))
			return
		}
		status = next
	}

	transition(StatusRunning)
	rc.Progress(st.Name(), 0)
	start := time.Now()

	result := schemas.StageResult[O]{Metadata: map[string]any{}}

	usage := &usageTotals{}
	ctx = context.WithValue(ctx, usageCtxKey{}, usage)

	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic recovered in stage",
					zap.Any("panic_value", r),
					zap.Stack("stack"))
				result.Success = false
				result.Err = fmt.Sprintf("stage %s: panic: %v", st.Name(), r)
			}
		}()

		if err := validateInput(in); err != nil {
			result.Err = fmt.Sprintf("stage %s: invalid input: %v", st.Name(), err)
			return
		}

		out, err := st.Generate(ctx, in, rc)
		if err != nil {
			result.Err = fmt.Sprintf("stage %s: %v", st.Name(), err)
			return
		}
		result.Success = true
		result.Output = out
	}()

	result.Elapsed = time.Since(start)

	if result.Success {
		transition(StatusCompleted)
		rc.Progress(st.Name(), 100)
		log.Info("Stage completed", zap.Duration("elapsed", result.Elapsed))
	} else {
		transition(StatusFailed)
		log.Warn("Stage failed", zap.Duration("elapsed", result.Elapsed), zap.String("error", result.Err))
	}
	result.Metadata["status"] = string(status)
	if u := usage.u; u.TotalTokens > 0 {
		result.Metadata["prompt_tokens"] = u.PromptTokens
		result.Metadata["completion_tokens"] = u.CompletionTokens
		result.Metadata["total_tokens"] = u.TotalTokens
	}

	return result
}

// validateInput applies struct tag validation when the input is a struct;
// other input shapes pass through.
func validateInput(in any) error {
	if in == nil {
		return nil
	}
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	// Non-struct inputs are not validatable; that is not a failure.
	if _, ok := err.(*validator.InvalidValidationError); ok {
		return nil
	}
	return err
}
