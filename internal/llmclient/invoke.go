// Package llmclient is the model invocation layer: one uniform contract over
// heterogeneous language model providers, owning retry, backoff, timeout and
// structured-output policy. Request metadata (provider, model, durations,
// token counts) is logged; message content never is.
package llmclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"github.com/storeforge/storeforge/api/schemas"
	"github.com/storeforge/storeforge/internal/config"
)

// validateConversation enforces the message ordering contract: at least one
// message, a system message only in first position, and known roles.
func validateConversation(messages []schemas.ModelMessage) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: empty conversation", ErrInvalidRequest)
	}
	for i, msg := range messages {
		switch msg.Role {
		case schemas.RoleSystem:
			if i != 0 {
				return fmt.Errorf("%w: system message must be first (found at index %d)", ErrInvalidRequest, i)
			}
		case schemas.RoleUser, schemas.RoleAssistant:
		default:
			return fmt.Errorf("%w: unknown message role %q", ErrInvalidRequest, msg.Role)
		}
	}
	return nil
}

// splitSystem peels a leading system message off the conversation, returning
// its content and the remaining messages.
func splitSystem(messages []schemas.ModelMessage) (string, []schemas.ModelMessage) {
	if len(messages) > 0 && messages[0].Role == schemas.RoleSystem {
		return messages[0].Content, messages[1:]
	}
	return "", messages
}

// retryTransient runs op under the configured exponential backoff policy.
// Transient failures are retried up to cfg.MaxAttempts total attempts; errors
// wrapped with backoff.Permanent abort immediately. When the attempt budget
// is exhausted the last error is folded into ErrProviderUnavailable.
func retryTransient(ctx context.Context, cfg config.RetryConfig, op backoff.Operation) error {
	b := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}
	// Attempts, not elapsed time, bound the loop.
	b.MaxElapsedTime = 0

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx))
	if err == nil {
		return nil
	}
	// Permanent failures surface unchanged.
	if errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrMalformedOutput) ||
		errors.Is(err, ErrInvalidRequest) {
		return err
	}
	// Caller cancellation surfaces unchanged too. The outer context is the
	// arbiter here: a per-attempt HTTP timeout also unwraps to
	// context.DeadlineExceeded, but that is a transient failure of one
	// attempt, not the caller giving up.
	if ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
