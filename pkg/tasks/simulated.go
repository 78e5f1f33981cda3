package tasks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/dispatch"
)

// SimulatedSource builds tasks that sleep for a random duration and report
// a random token count. Error and rate-limit injection rates make it usable
// for exercising the dispatcher's failure paths.
type SimulatedSource struct {
	cfg config.SimulatedConfig
}

// NewSimulatedSource creates a simulated task source.
func NewSimulatedSource(cfg config.SimulatedConfig) *SimulatedSource {
	return &SimulatedSource{cfg: cfg}
}

// Name identifies the source in logs.
func (s *SimulatedSource) Name() string {
	return "simulated"
}

// Build returns a task that sleeps and fabricates token usage.
func (s *SimulatedSource) Build(id int) dispatch.Task {
	return dispatch.Task{
		ID: id,
		Run: func(ctx context.Context) (*dispatch.TaskResult, error) {
			latency := s.cfg.MinLatency
			if s.cfg.MaxLatency > s.cfg.MinLatency {
				latency += rand.N(s.cfg.MaxLatency - s.cfg.MinLatency)
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(latency):
			}

			if s.cfg.RateLimitRate > 0 && rand.Float64() < s.cfg.RateLimitRate {
				return nil, fmt.Errorf("simulated upstream rejection: HTTP 429 rate limit exceeded")
			}
			if s.cfg.ErrorRate > 0 && rand.Float64() < s.cfg.ErrorRate {
				return nil, fmt.Errorf("simulated task failure")
			}

			tokens := s.cfg.MinTokens
			if s.cfg.MaxTokens > s.cfg.MinTokens {
				tokens += rand.IntN(s.cfg.MaxTokens - s.cfg.MinTokens + 1)
			}

			return &dispatch.TaskResult{
				TaskID: id,
				Tokens: tokens,
			}, nil
		},
	}
}
