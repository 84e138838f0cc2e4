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

// GeminiClient implements schemas.ModelClient against the Gemini
// generateContent API. Gemini has a native structured-output mode
// (response_mime_type), so no prompt injection is needed for JSON requests;
// the reply is still validated before it is returned.
type GeminiClient struct {
	cfg        config.ProviderConfig
	retry      config.RetryConfig
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

var _ schemas.ModelClient = (*GeminiClient)(nil)

// -- Gemini wire structures (internal to this file) --

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiSystemInstruction struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"response_mime_type,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent          `json:"contents"`
	SystemInstruction *geminiSystemInstruction `json:"system_instruction,omitempty"`
	GenerationConfig  geminiGenerationConfig   `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// NewGeminiClient initializes the client from provider configuration.
func NewGeminiClient(cfg config.ProviderConfig, retry config.RetryConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	return &GeminiClient{
		cfg:        cfg,
		retry:      retry,
		endpoint:   cfg.Endpoint, // resolved per call when empty, to honor model overrides
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newLimiter(cfg.RequestsPerMinute),
		logger:     logger.Named("llm_client.gemini"),
	}, nil
}

// Invoke sends the conversation to Gemini with retry on transient failures.
func (c *GeminiClient) Invoke(ctx context.Context, messages []schemas.ModelMessage, opts schemas.InvokeOptions) (*schemas.ModelResponse, error) {
	if err := validateConversation(messages); err != nil {
		return nil, err
	}

	model := c.cfg.Model
	if opts.Model != "" {
		model = opts.Model
	}

	body, err := json.Marshal(c.buildRequest(messages, opts))
	if err != nil {
		return nil, fmt.Errorf("gemini: marshalling request: %w", err)
	}

	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", model)
	}

	var out *schemas.ModelResponse
	operation := func() error {
		if err := waitLimiter(ctx, c.limiter); err != nil {
			return backoff.Permanent(err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("gemini: building request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Warn("Network error during Gemini request, retrying", zap.Error(err))
			return fmt.Errorf("gemini: executing request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("gemini: reading response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.classifyAPIError(resp.StatusCode)
		}

		var payload geminiResponse
		if err := json.Unmarshal(respBody, &payload); err != nil {
			return backoff.Permanent(fmt.Errorf("gemini: decoding response payload: %w", err))
		}
		if len(payload.Candidates) == 0 || len(payload.Candidates[0].Content.Parts) == 0 {
			reason := ""
			if len(payload.Candidates) > 0 {
				reason = payload.Candidates[0].FinishReason
			}
			return backoff.Permanent(fmt.Errorf("gemini: empty completion (finish reason %q)", reason))
		}

		content := payload.Candidates[0].Content.Parts[0].Text
		if opts.StructuredOutput {
			if err := llmutil.ValidateJSON(content); err != nil {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrMalformedOutput, err))
			}
		}

		c.logger.Info("Model invocation complete",
			zap.String("provider", config.ProviderGemini),
			zap.String("model", model),
			zap.Duration("duration", time.Since(start)),
			zap.Int("prompt_tokens", payload.UsageMetadata.PromptTokenCount),
			zap.Int("completion_tokens", payload.UsageMetadata.CandidatesTokenCount),
		)

		out = &schemas.ModelResponse{
			Content: content,
			Model:   model,
			Usage: schemas.TokenUsage{
				PromptTokens:     payload.UsageMetadata.PromptTokenCount,
				CompletionTokens: payload.UsageMetadata.CandidatesTokenCount,
				TotalTokens:      payload.UsageMetadata.TotalTokenCount,
			},
		}
		return nil
	}

	if err := retryTransient(ctx, c.retry, operation); err != nil {
		return nil, err
	}
	return out, nil
}

// Close implements schemas.ModelClient; the HTTP client holds no resources
// that outlive idle connections.
func (c *GeminiClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *GeminiClient) buildRequest(messages []schemas.ModelMessage, opts schemas.InvokeOptions) geminiRequest {
	system, rest := splitSystem(messages)

	contents := make([]geminiContent, 0, len(rest))
	for _, msg := range rest {
		role := "user"
		if msg.Role == schemas.RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}

	temperature := c.cfg.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := c.cfg.MaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	req := geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
		},
	}
	if system != "" {
		req.SystemInstruction = &geminiSystemInstruction{Parts: []geminiPart{{Text: system}}}
	}
	if opts.StructuredOutput {
		req.GenerationConfig.ResponseMimeType = "application/json"
	}
	return req
}

func (c *GeminiClient) classifyAPIError(statusCode int) error {
	c.logger.Warn("Gemini API returned error status", zap.Int("status", statusCode))
	err := fmt.Errorf("gemini: API status %d", statusCode)

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
