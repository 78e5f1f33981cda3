package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/callisto/pkg/config"
)

// HTTPProvider talks to an OpenAI-compatible chat completions endpoint.
// It provides connection pooling, timeout handling, and status-code to
// typed-error mapping.
type HTTPProvider struct {
	// config contains the provider configuration
	config config.ProviderConfig

	// client is the HTTP client with connection pooling
	client *http.Client
}

// chatRequest is the wire format for a chat completions request.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

// chatMessage is a single message in a chat completions request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the wire format for a chat completions response.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewHTTPProvider creates a new provider with connection pooling.
func NewHTTPProvider(cfg config.ProviderConfig) *HTTPProvider {
	// Create HTTP transport with connection pooling
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProvider{
		config: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// Name returns the provider's configured name.
func (p *HTTPProvider) Name() string {
	return p.config.Name
}

// Complete sends a chat completions request and returns the response.
func (p *HTTPProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	wireReq := chatRequest{
		Model:     model,
		MaxTokens: maxTokens,
	}
	for _, m := range req.Messages {
		wireReq.Messages = append(wireReq.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.config.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	slog.Debug("sending request to provider",
		"provider", p.config.Name,
		"model", model,
		"url", url,
	)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &TimeoutError{
				Provider: p.config.Name,
				Timeout:  p.config.Timeout,
			}
		}
		return nil, &ProviderError{
			Provider: p.config.Name,
			Message:  "request failed",
			Cause:    err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(resp.Body)
		return nil, p.statusError(resp, string(errorBody))
	}

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ParseError{
			Provider: p.config.Name,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	var wireResp chatResponse
	if err := json.Unmarshal(responseBytes, &wireResp); err != nil {
		return nil, &ParseError{
			Provider: p.config.Name,
			Cause:    fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}

	if len(wireResp.Choices) == 0 {
		return nil, &ParseError{
			Provider: p.config.Name,
			Cause:    fmt.Errorf("response contained no choices"),
		}
	}

	return &CompletionResponse{
		Content: wireResp.Choices[0].Message.Content,
		Model:   wireResp.Model,
		Usage: TokenUsage{
			PromptTokens:     wireResp.Usage.PromptTokens,
			CompletionTokens: wireResp.Usage.CompletionTokens,
			TotalTokens:      wireResp.Usage.TotalTokens,
		},
	}, nil
}

// statusError maps a non-2xx response to a typed error.
func (p *HTTPProvider) statusError(resp *http.Response, body string) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{
			Provider: p.config.Name,
			Message:  body,
		}

	case http.StatusTooManyRequests:
		return &RateLimitError{
			Provider:   p.config.Name,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    body,
		}

	default:
		return &ProviderError{
			Provider:   p.config.Name,
			StatusCode: resp.StatusCode,
			Message:    body,
		}
	}
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
