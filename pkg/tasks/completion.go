package tasks

import (
	"context"
	"strconv"
	"strings"

	"mercator-hq/callisto/pkg/dispatch"
	"mercator-hq/callisto/pkg/providers"
)

// CompletionSource builds tasks that send a templated prompt to an LLM
// provider. The task id is substituted for "{id}" in the template, and the
// provider's reported total token usage becomes the task's token count.
type CompletionSource struct {
	provider providers.Provider
	prompt   string
}

// NewCompletionSource creates a provider-backed task source.
func NewCompletionSource(provider providers.Provider, prompt string) *CompletionSource {
	return &CompletionSource{
		provider: provider,
		prompt:   prompt,
	}
}

// Name identifies the source in logs.
func (s *CompletionSource) Name() string {
	return "completion"
}

// Build returns a task that performs one completion call.
func (s *CompletionSource) Build(id int) dispatch.Task {
	return dispatch.Task{
		ID: id,
		Run: func(ctx context.Context) (*dispatch.TaskResult, error) {
			prompt := strings.ReplaceAll(s.prompt, "{id}", strconv.Itoa(id))

			resp, err := s.provider.Complete(ctx, &providers.CompletionRequest{
				Messages: []providers.Message{
					{Role: "user", Content: prompt},
				},
			})
			if err != nil {
				return nil, err
			}

			tokens := resp.Usage.TotalTokens
			if tokens == 0 {
				// Some endpoints omit usage. Fall back to a rough
				// whitespace-token estimate so rate accounting keeps moving.
				tokens = len(strings.Fields(prompt)) + len(strings.Fields(resp.Content))
			}

			return &dispatch.TaskResult{
				TaskID: id,
				Tokens: tokens,
			}, nil
		},
	}
}
