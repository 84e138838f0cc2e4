package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/storeforge/storeforge/api/schemas"
	"github.com/storeforge/storeforge/internal/config"
)

// NewClient is the factory for the model invocation layer: it builds one
// client per configured provider and wraps them in a router keyed by name.
// Provider selection happens here, at construction time, never by runtime
// type inspection.
func NewClient(cfg config.LLMConfig, logger *zap.Logger) (schemas.ModelClient, error) {
	clients := make(map[string]schemas.ModelClient, len(cfg.Providers))

	for name, providerCfg := range cfg.Providers {
		var (
			client schemas.ModelClient
			err    error
		)
		switch providerCfg.Kind {
		case config.ProviderGemini:
			client, err = NewGeminiClient(providerCfg, cfg.Retry, logger)
		case config.ProviderOpenAI:
			client, err = NewOpenAIClient(providerCfg, cfg.Retry, logger)
		default:
			err = fmt.Errorf("unsupported provider kind %q (supported: %s, %s)",
				providerCfg.Kind, config.ProviderGemini, config.ProviderOpenAI)
		}
		if err != nil {
			closeAll(clients)
			return nil, fmt.Errorf("building provider %q: %w", name, err)
		}
		clients[name] = client
	}

	router, err := NewRouter(logger, cfg.DefaultProvider, clients)
	if err != nil {
		closeAll(clients)
		return nil, err
	}
	return router, nil
}

func closeAll(clients map[string]schemas.ModelClient) {
	for _, c := range clients {
		_ = c.Close()
	}
}
