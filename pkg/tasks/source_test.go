package tasks

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/providers"
)

// fakeProvider records the last request and returns a canned response.
type fakeProvider struct {
	lastPrompt string
	resp       *providers.CompletionResponse
	err        error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if len(req.Messages) > 0 {
		f.lastPrompt = req.Messages[0].Content
	}
	return f.resp, f.err
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		provider providers.Provider
		wantErr  bool
	}{
		{"simulated", "simulated", nil, false},
		{"completion with provider", "completion", &fakeProvider{}, false},
		{"completion without provider", "completion", nil, true},
		{"unknown", "bogus", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.TasksConfig{Source: tt.source}
			src, err := NewSource(cfg, tt.provider)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSource failed: %v", err)
			}
			if src.Name() != tt.source {
				t.Errorf("expected source name %q, got %q", tt.source, src.Name())
			}
		})
	}
}

func TestSimulatedSource_Success(t *testing.T) {
	src := NewSimulatedSource(config.SimulatedConfig{
		MinLatency: time.Millisecond,
		MaxLatency: 5 * time.Millisecond,
		MinTokens:  5,
		MaxTokens:  100,
	})

	task := src.Build(7)
	if task.ID != 7 {
		t.Errorf("expected task id 7, got %d", task.ID)
	}

	result, err := task.Run(context.Background())
	if err != nil {
		t.Fatalf("task failed: %v", err)
	}
	if result.TaskID != 7 {
		t.Errorf("expected result task id 7, got %d", result.TaskID)
	}
	if result.Tokens < 5 || result.Tokens > 100 {
		t.Errorf("expected tokens in [5, 100], got %d", result.Tokens)
	}
}

func TestSimulatedSource_ErrorInjection(t *testing.T) {
	src := NewSimulatedSource(config.SimulatedConfig{
		MinLatency: time.Millisecond,
		MaxLatency: time.Millisecond,
		MinTokens:  1,
		MaxTokens:  1,
		ErrorRate:  1.0,
	})

	_, err := src.Build(1).Run(context.Background())
	if err == nil {
		t.Fatal("expected injected error")
	}
}

func TestSimulatedSource_RateLimitInjection(t *testing.T) {
	src := NewSimulatedSource(config.SimulatedConfig{
		MinLatency:    time.Millisecond,
		MaxLatency:    time.Millisecond,
		MinTokens:     1,
		MaxTokens:     1,
		RateLimitRate: 1.0,
	})

	_, err := src.Build(1).Run(context.Background())
	if err == nil {
		t.Fatal("expected injected rate limit error")
	}

	// The injected error carries the upstream rate limit markers
	text := strings.ToLower(err.Error())
	if !strings.Contains(text, "429") || !strings.Contains(text, "rate limit") {
		t.Errorf("expected 429 and rate limit markers, got %q", err.Error())
	}
}

func TestSimulatedSource_ContextCancel(t *testing.T) {
	src := NewSimulatedSource(config.SimulatedConfig{
		MinLatency: time.Minute,
		MaxLatency: time.Minute,
		MinTokens:  1,
		MaxTokens:  1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Build(1).Run(ctx)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCompletionSource_PromptSubstitution(t *testing.T) {
	fake := &fakeProvider{
		resp: &providers.CompletionResponse{
			Content: "42",
			Usage:   providers.TokenUsage{TotalTokens: 33},
		},
	}
	src := NewCompletionSource(fake, "Task {id}: Generate a random number.")

	result, err := src.Build(12).Run(context.Background())
	if err != nil {
		t.Fatalf("task failed: %v", err)
	}

	if fake.lastPrompt != "Task 12: Generate a random number." {
		t.Errorf("unexpected prompt: %q", fake.lastPrompt)
	}
	if result.Tokens != 33 {
		t.Errorf("expected 33 tokens, got %d", result.Tokens)
	}
}

func TestCompletionSource_TokenEstimateFallback(t *testing.T) {
	fake := &fakeProvider{
		resp: &providers.CompletionResponse{
			Content: "one two three",
		},
	}
	src := NewCompletionSource(fake, "count to three")

	result, err := src.Build(1).Run(context.Background())
	if err != nil {
		t.Fatalf("task failed: %v", err)
	}

	// 3 prompt words + 3 response words
	if result.Tokens != 6 {
		t.Errorf("expected estimated 6 tokens, got %d", result.Tokens)
	}
}

func TestCompletionSource_ProviderError(t *testing.T) {
	fake := &fakeProvider{err: fmt.Errorf("boom")}
	src := NewCompletionSource(fake, "hello")

	_, err := src.Build(1).Run(context.Background())
	if err == nil {
		t.Fatal("expected provider error to propagate")
	}
}
