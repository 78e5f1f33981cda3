package dispatch

import (
	"math"
	"time"

	"mercator-hq/callisto/pkg/limits/ratelimit"
)

// Sliding-window sizes for the dispatcher's own rate reporting. These are
// independent of the limiter's admission windows.
const (
	tpmWindow = time.Minute
	rpmWindow = 10 * time.Second

	// qpsMinInterval is the minimum spacing between QPS recalculations;
	// snapshots taken closer together than this return the cached value.
	qpsMinInterval = 100 * time.Millisecond
)

// tokenPoint is one successful task's token usage, timestamped for the
// sliding TPM calculation.
type tokenPoint struct {
	at     time.Time
	tokens int
}

// processorState is the dispatcher's shared mutable state. It is owned by
// the Dispatcher and mutated only under the dispatcher's state lock.
type processorState struct {
	totalTasks     int
	completedTasks int
	errorCount     int
	requeuedTasks  int

	results []TaskOutcome

	totalTokens int
	minTokens   int
	maxTokens   int
	tokenCount  int

	// Time-ordered histories: appended at the tail, pruned from the head.
	tokenHistory   []tokenPoint
	requestHistory []time.Time
	queryHistory   []time.Time

	// QPS point-estimate bookkeeping.
	lastQPSCalc      time.Time
	queriesSinceCalc int
	instantaneousQPS float64
}

// reinit restores the zero state. Caller must hold the state lock.
func (s *processorState) reinit(now time.Time) {
	s.totalTasks = 0
	s.completedTasks = 0
	s.errorCount = 0
	s.requeuedTasks = 0
	s.results = nil
	s.totalTokens = 0
	s.minTokens = math.MaxInt
	s.maxTokens = 0
	s.tokenCount = 0
	s.tokenHistory = nil
	s.requestHistory = nil
	s.queryHistory = nil
	s.lastQPSCalc = now
	s.queriesSinceCalc = 0
	s.instantaneousQPS = 0
}

// recordSuccess folds a successful outcome into the counters, histories,
// and token statistics. Caller must hold the state lock.
func (s *processorState) recordSuccess(outcome TaskOutcome, now time.Time) {
	s.results = append(s.results, outcome)
	s.completedTasks++
	s.requestHistory = append(s.requestHistory, now)

	if outcome.Result != nil {
		tokens := outcome.Result.Tokens
		s.totalTokens += tokens
		if tokens < s.minTokens {
			s.minTokens = tokens
		}
		if tokens > s.maxTokens {
			s.maxTokens = tokens
		}
		s.tokenCount++
		s.tokenHistory = append(s.tokenHistory, tokenPoint{at: now, tokens: tokens})
	}
}

// recordError folds a terminal failure into the counters. Caller must hold
// the state lock.
func (s *processorState) recordError(outcome TaskOutcome) {
	s.results = append(s.results, outcome)
	s.completedTasks++
	s.errorCount++
}

// calculateTPM computes tokens per minute from the sliding token history.
//
// Entries older than the window are pruned from the head; the remaining
// entries are scaled by 60 over the span they actually cover, rather than
// the nominal window size, so a window that has not yet filled does not
// under-report the rate. Caller must hold the state lock.
func (s *processorState) calculateTPM(now time.Time) int {
	windowStart := now.Add(-tpmWindow)
	for len(s.tokenHistory) > 0 && s.tokenHistory[0].at.Before(windowStart) {
		s.tokenHistory = s.tokenHistory[1:]
	}
	if len(s.tokenHistory) == 0 {
		return 0
	}

	tokens := 0
	for _, p := range s.tokenHistory {
		tokens += p.tokens
	}

	span := now.Sub(s.tokenHistory[0].at)
	if span <= 0 {
		return 0
	}
	return int(float64(tokens) / span.Seconds() * 60)
}

// calculateRPM computes requests per minute from the sliding history of
// successful requests, scaled by the span the entries actually cover.
// Spans under one second return 0 to avoid wild extrapolation from a couple
// of back-to-back completions. Caller must hold the state lock.
func (s *processorState) calculateRPM(now time.Time) int {
	windowStart := now.Add(-rpmWindow)
	for len(s.requestHistory) > 0 && s.requestHistory[0].Before(windowStart) {
		s.requestHistory = s.requestHistory[1:]
	}
	if len(s.requestHistory) == 0 {
		return 0
	}

	span := now.Sub(s.requestHistory[0])
	if span < time.Second {
		return 0
	}
	return int(float64(len(s.requestHistory)) / span.Seconds() * 60)
}

// calculateQPS returns the instantaneous query rate.
//
// This is a point estimate, not a sliding average: it divides the queries
// observed since the previous calculation by the elapsed time, then resets
// both. Calls spaced closer than qpsMinInterval return the cached value, so
// the number depends on snapshot cadence. Caller must hold the state lock.
func (s *processorState) calculateQPS(now time.Time) float64 {
	elapsed := now.Sub(s.lastQPSCalc)
	if elapsed >= qpsMinInterval {
		if s.queriesSinceCalc > 0 {
			s.instantaneousQPS = float64(s.queriesSinceCalc) / elapsed.Seconds()
		} else {
			s.instantaneousQPS = 0
		}
		s.lastQPSCalc = now
		s.queriesSinceCalc = 0
	}
	return math.Round(s.instantaneousQPS*100) / 100
}

// pruneQueryHistory drops raw query timestamps older than the TPM window to
// bound memory; the history is retained only for inspection and replay in
// tests. Caller must hold the state lock.
func (s *processorState) pruneQueryHistory(now time.Time) {
	windowStart := now.Add(-tpmWindow)
	for len(s.queryHistory) > 0 && s.queryHistory[0].Before(windowStart) {
		s.queryHistory = s.queryHistory[1:]
	}
}

// Progress is a consistent snapshot of dispatcher state for the control API
// and dashboard.
type Progress struct {
	Completed     int           `json:"completed"`
	Total         int           `json:"total"`
	QueueSize     int           `json:"queue_size"`
	Results       []TaskOutcome `json:"results"`
	ErrorCount    int           `json:"error_count"`
	RequeuedTasks int           `json:"requeued_tasks"`

	TotalTokens int `json:"total_tokens"`
	MinTokens   int `json:"min_tokens"`
	MaxTokens   int `json:"max_tokens"`
	AvgTokens   int `json:"avg_tokens"`

	TPM int     `json:"tpm"`
	RPM int     `json:"rpm"`
	QPS float64 `json:"qps"`

	RateLimitMode RateLimitMode       `json:"rate_limit_mode"`
	RateLimit     *ratelimit.Snapshot `json:"rate_limit_info,omitempty"`
}
