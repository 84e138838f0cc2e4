package schemas

import "context"

// MessageRole identifies the author of one conversation message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ModelMessage is a single entry in an ordered conversation. Order is
// semantically significant; a system message, when present, must come first.
type ModelMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// TokenUsage is the accounting reported by a provider for one invocation.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelResponse is the read-only result of one model invocation.
type ModelResponse struct {
	Content string     `json:"content"`
	Model   string     `json:"model"`
	Usage   TokenUsage `json:"usage"`
}

// InvokeOptions controls a single model invocation. Zero values select the
// configured defaults.
type InvokeOptions struct {
	// Provider names a configured provider; empty selects the process-wide
	// default.
	Provider string
	// Model overrides the provider's configured model name.
	Model string
	// Temperature controls randomness, valid range [0.0, 2.0]. A nil pointer
	// keeps the provider's configured default; 0.0 is a valid explicit value.
	Temperature *float64
	// MaxTokens bounds the completion length; 0 means provider default.
	MaxTokens int
	// StructuredOutput requests machine parseable JSON. Providers without a
	// native structured mode must inject format instructions into the prompt
	// and validate that the reply parses.
	StructuredOutput bool
}

// Temperature wraps a literal for InvokeOptions.Temperature.
func Temperature(v float64) *float64 { return &v }

// ModelClient is the uniform contract over heterogeneous language model
// providers. Implementations own retry, backoff and timeout policy and must
// be safe for concurrent use.
type ModelClient interface {
	// Invoke sends an ordered conversation and returns the completion.
	// Transient provider failures are retried internally; the returned error
	// is always terminal for this call.
	Invoke(ctx context.Context, messages []ModelMessage, opts InvokeOptions) (*ModelResponse, error)
	// Close releases any resources held by the client.
	Close() error
}
