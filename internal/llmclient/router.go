package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storeforge/storeforge/api/schemas"
)

// Router implements schemas.ModelClient by dispatching each invocation to a
// named provider client, falling back to the configured default when the
// caller does not ask for a specific one.
type Router struct {
	logger          *zap.Logger
	defaultProvider string
	clients         map[string]schemas.ModelClient
}

var _ schemas.ModelClient = (*Router)(nil)

// NewRouter builds a router over the given provider clients.
func NewRouter(logger *zap.Logger, defaultProvider string, clients map[string]schemas.ModelClient) (*Router, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("at least one provider client must be configured")
	}
	if _, ok := clients[defaultProvider]; !ok {
		return nil, fmt.Errorf("default provider %q has no configured client", defaultProvider)
	}
	return &Router{
		logger:          logger.Named("llm_router"),
		defaultProvider: defaultProvider,
		clients:         clients,
	}, nil
}

// Invoke routes the request to the selected provider.
func (r *Router) Invoke(ctx context.Context, messages []schemas.ModelMessage, opts schemas.InvokeOptions) (*schemas.ModelResponse, error) {
	name := opts.Provider
	if name == "" || name == "default" {
		name = r.defaultProvider
	}

	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: no client configured for provider %q", ErrInvalidRequest, name)
	}

	r.logger.Debug("Routing model invocation", zap.String("provider", name))
	return client.Invoke(ctx, messages, opts)
}

// Close closes every underlying provider client, returning the first error.
func (r *Router) Close() error {
	var firstErr error
	for name, client := range r.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing provider %q: %w", name, err)
		}
	}
	return firstErr
}
