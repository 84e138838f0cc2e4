// Package config builds the immutable process-wide configuration. It is
// constructed once at startup (viper over yaml + SF_ environment variables)
// and handed to every component by injection; nothing reads viper after Load
// returns.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/storeforge/storeforge/api/schemas"
)

// Provider names accepted in the llm.providers map.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config is the root configuration object.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Sourcing  SourcingConfig  `mapstructure:"sourcing"`
	Copywrite CopywriteConfig `mapstructure:"copywrite"`
}

// LoggerConfig mirrors the observability package's needs.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"` // "console" or "json"
	AddSource   bool   `mapstructure:"add_source"`
	ServiceName string `mapstructure:"service_name"`
	LogFile     string `mapstructure:"log_file"`
	MaxSizeMB   int    `mapstructure:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age"`
	Compress    bool   `mapstructure:"compress"`
}

// ProviderConfig configures one language model provider client.
type ProviderConfig struct {
	Kind        string        `mapstructure:"kind" validate:"required,oneof=gemini openai"`
	Model       string        `mapstructure:"model" validate:"required"`
	APIKey      string        `mapstructure:"api_key"`
	Endpoint    string        `mapstructure:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	// RequestsPerMinute throttles outbound calls; 0 disables the limiter.
	RequestsPerMinute int `mapstructure:"requests_per_minute" validate:"gte=0"`
}

// LLMConfig holds the provider map and retry policy for the model
// invocation layer.
type LLMConfig struct {
	// DefaultProvider names the entry of Providers used when a caller does
	// not ask for a specific one.
	DefaultProvider string                    `mapstructure:"default_provider" validate:"required"`
	Providers       map[string]ProviderConfig `mapstructure:"providers" validate:"required,dive"`
	Retry           RetryConfig               `mapstructure:"retry"`
}

// RetryConfig bounds the transient-failure retry loop.
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts" validate:"gte=1"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

// EngineConfig bounds intra-stage fan-out.
type EngineConfig struct {
	// StageConcurrency limits concurrent sub-calls inside a single stage
	// (per-product copy generation and the like).
	StageConcurrency int `mapstructure:"stage_concurrency" validate:"gte=1"`
}

// SourcingConfig tunes candidate selection.
type SourcingConfig struct {
	MaxCandidates int                    `mapstructure:"max_candidates" validate:"gte=1"`
	Weights       schemas.ScoringWeights `mapstructure:"weights"`
	// SimilarityThreshold is the normalized title similarity above which two
	// candidates count as duplicates.
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"gt=0,lte=1"`
}

// CopywriteConfig tunes the copywriting stage.
type CopywriteConfig struct {
	// MaxProductCopy caps how many winners receive generated marketing copy.
	MaxProductCopy int `mapstructure:"max_product_copy" validate:"gte=1"`
}

// setDefaults registers every default on the provided viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "storeforge")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)

	v.SetDefault("llm.default_provider", "gemini")
	v.SetDefault("llm.providers.gemini.kind", ProviderGemini)
	v.SetDefault("llm.providers.gemini.model", "gemini-2.0-flash")
	v.SetDefault("llm.providers.gemini.api_timeout", 45*time.Second)
	v.SetDefault("llm.providers.gemini.temperature", 0.7)
	v.SetDefault("llm.retry.max_attempts", 3)
	v.SetDefault("llm.retry.initial_interval", 2*time.Second)
	v.SetDefault("llm.retry.max_interval", 10*time.Second)

	v.SetDefault("engine.stage_concurrency", 4)

	v.SetDefault("sourcing.max_candidates", 10)
	v.SetDefault("sourcing.similarity_threshold", 0.85)
	w := schemas.DefaultScoringWeights()
	v.SetDefault("sourcing.weights.rating", w.Rating)
	v.SetDefault("sourcing.weights.reviews", w.Reviews)
	v.SetDefault("sourcing.weights.orders", w.Orders)
	v.SetDefault("sourcing.weights.margin", w.Margin)
	v.SetDefault("sourcing.weights.shipping", w.Shipping)
	v.SetDefault("sourcing.weights.images", w.Images)

	v.SetDefault("copywrite.max_product_copy", 10)
}

// Load reads the configuration file (optional) and environment, applies
// defaults and validates the result.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("storeforge")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine; defaults plus env cover the full surface.
	}

	// AutomaticEnv only resolves keys viper already knows, and the secret
	// provider keys carry no defaults. Bind them explicitly so
	// SF_LLM_PROVIDERS_<NAME>_API_KEY and ..._ENDPOINT take effect for every
	// provider the defaults or the file declare.
	for name := range v.GetStringMap("llm.providers") {
		for _, field := range []string{"api_key", "endpoint"} {
			_ = v.BindEnv(fmt.Sprintf("llm.providers.%s.%s", name, field))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces structural invariants beyond what unmarshalling checks.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, ok := c.LLM.Providers[c.LLM.DefaultProvider]; !ok {
		return fmt.Errorf("invalid configuration: default provider %q is not defined under llm.providers", c.LLM.DefaultProvider)
	}
	return nil
}
