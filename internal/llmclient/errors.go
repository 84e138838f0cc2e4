package llmclient

import (
	"errors"
	"net/http"
)

// Terminal failure modes of the invocation layer. Callers branch on these
// with errors.Is; everything else is an internal wiring error.
var (
	// ErrProviderUnavailable reports that every retry attempt against the
	// provider failed with a transient error.
	ErrProviderUnavailable = errors.New("llm provider unavailable after retries")

	// ErrInvalidCredentials reports an authentication failure. Never retried.
	ErrInvalidCredentials = errors.New("llm provider rejected credentials")

	// ErrMalformedOutput reports that structured output was requested but the
	// provider's reply did not parse as JSON. Never retried: repeating a
	// parsing contract violation is not expected to converge, so no
	// corrective follow-up attempt is made.
	ErrMalformedOutput = errors.New("llm provider returned malformed structured output")

	// ErrInvalidRequest reports a malformed request (bad message ordering,
	// empty conversation, provider-side 400). Never retried.
	ErrInvalidRequest = errors.New("invalid llm request")
)

// transientStatus reports whether an HTTP status from a provider is worth
// retrying: rate limits and 5xx-class server failures are, everything else
// fails the call immediately.
func transientStatus(code int) bool {
	if code == http.StatusTooManyRequests || code == http.StatusRequestTimeout {
		return true
	}
	return code >= 500 && code <= 599
}
