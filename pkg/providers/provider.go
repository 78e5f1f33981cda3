package providers

import "context"

// Provider is the interface the completion task source depends on.
//
// Implementations must respect context cancellation and return typed errors
// from this package so failures can be classified.
type Provider interface {
	// Complete sends a completion request and returns the normalized
	// response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider's configured name (e.g. "openai").
	Name() string
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a provider-agnostic completion request.
type CompletionRequest struct {
	// Model is the model identifier (e.g. "gpt-4o").
	Model string `json:"model"`

	// Messages is the conversation so far.
	Messages []Message `json:"messages"`

	// MaxTokens caps the completion length. 0 leaves it to the provider.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// TokenUsage tracks token consumption for one request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is a provider-agnostic completion response.
type CompletionResponse struct {
	// Content is the completion text of the first choice.
	Content string `json:"content"`

	// Model echoes the model that produced the completion.
	Model string `json:"model"`

	// Usage contains token consumption information. All-zero when the
	// provider omitted usage data.
	Usage TokenUsage `json:"usage"`
}
