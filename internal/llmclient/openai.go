package llmclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/storeforge/storeforge/api/schemas"
	"github.com/storeforge/storeforge/internal/config"
	"github.com/storeforge/storeforge/internal/llmutil"
)

// structuredOutputInstruction is appended to the system prompt for providers
// without a guaranteed structured-output mode.
const structuredOutputInstruction = "\n\nRespond with a single valid JSON value and nothing else. " +
	"Do not wrap the JSON in markdown fences and do not add commentary."

// OpenAIClient implements schemas.ModelClient against any OpenAI-compatible
// chat completions endpoint. The generic endpoints this client targets carry
// no guaranteed structured-output mode, so JSON requests are handled by
// injecting format instructions into the system prompt and validating that
// the reply parses; an unparseable reply fails the call without retry.
type OpenAIClient struct {
	cfg        config.ProviderConfig
	retry      config.RetryConfig
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

var _ schemas.ModelClient = (*OpenAIClient)(nil)

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewOpenAIClient initializes the client from provider configuration.
func NewOpenAIClient(cfg config.ProviderConfig, retry config.RetryConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	}

	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	return &OpenAIClient{
		cfg:        cfg,
		retry:      retry,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newLimiter(cfg.RequestsPerMinute),
		logger:     logger.Named("llm_client.openai"),
	}, nil
}

// Invoke sends the conversation to the chat completions endpoint with retry
// on transient failures.
func (c *OpenAIClient) Invoke(ctx context.Context, messages []schemas.ModelMessage, opts schemas.InvokeOptions) (*schemas.ModelResponse, error) {
	if err := validateConversation(messages); err != nil {
		return nil, err
	}

	model := c.cfg.Model
	if opts.Model != "" {
		model = opts.Model
	}

	body, err := json.Marshal(c.buildRequest(model, messages, opts))
	if err != nil {
		return nil, fmt.Errorf("openai: marshalling request: %w", err)
	}

	var out *schemas.ModelResponse
	operation := func() error {
		if err := waitLimiter(ctx, c.limiter); err != nil {
			return backoff.Permanent(err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("openai: building request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Warn("Network error during chat completion request, retrying", zap.Error(err))
			return fmt.Errorf("openai: executing request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("openai: reading response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.classifyAPIError(resp.StatusCode)
		}

		var payload openAIResponse
		if err := json.Unmarshal(respBody, &payload); err != nil {
			return backoff.Permanent(fmt.Errorf("openai: decoding response payload: %w", err))
		}
		if len(payload.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("openai: no choices in response"))
		}

		content := payload.Choices[0].Message.Content
		if opts.StructuredOutput {
			if err := llmutil.ValidateJSON(content); err != nil {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrMalformedOutput, err))
			}
		}

		respModel := payload.Model
		if respModel == "" {
			respModel = model
		}

		c.logger.Info("Model invocation complete",
			zap.String("provider", config.ProviderOpenAI),
			zap.String("model", respModel),
			zap.Duration("duration", time.Since(start)),
			zap.Int("prompt_tokens", payload.Usage.PromptTokens),
			zap.Int("completion_tokens", payload.Usage.CompletionTokens),
		)

		out = &schemas.ModelResponse{
			Content: content,
			Model:   respModel,
			Usage: schemas.TokenUsage{
				PromptTokens:     payload.Usage.PromptTokens,
				CompletionTokens: payload.Usage.CompletionTokens,
				TotalTokens:      payload.Usage.TotalTokens,
			},
		}
		return nil
	}

	if err := retryTransient(ctx, c.retry, operation); err != nil {
		return nil, err
	}
	return out, nil
}

// Close implements schemas.ModelClient.
func (c *OpenAIClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *OpenAIClient) buildRequest(model string, messages []schemas.ModelMessage, opts schemas.InvokeOptions) openAIRequest {
	wire := make([]openAIMessage, 0, len(messages)+1)
	system, rest := splitSystem(messages)

	if opts.StructuredOutput {
		if system == "" {
			system = "You are a precise assistant."
		}
		system += structuredOutputInstruction
	}
	if system != "" {
		wire = append(wire, openAIMessage{Role: string(schemas.RoleSystem), Content: system})
	}
	for _, msg := range rest {
		wire = append(wire, openAIMessage{Role: string(msg.Role), Content: msg.Content})
	}

	temperature := c.cfg.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := c.cfg.MaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	return openAIRequest{
		Model:       model,
		Messages:    wire,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

func (c *OpenAIClient) classifyAPIError(statusCode int) error {
	c.logger.Warn("Chat completions API returned error status", zap.Int("status", statusCode))
	err := fmt.Errorf("openai: API status %d", statusCode)

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("%w: status %d", ErrInvalidCredentials, statusCode))
	case statusCode == http.StatusBadRequest:
		return backoff.Permanent(fmt.Errorf("%w: status %d", ErrInvalidRequest, statusCode))
	case transientStatus(statusCode):
		return err
	default:
		return backoff.Permanent(err)
	}
}
