package ratelimit

import (
	"sync"
	"time"
)

// FixedWindow implements Limiter with one fixed admission window per
// dimension plus sliding trailing-minute histories for reporting.
//
// The two mechanisms are deliberately decoupled: admission decisions read only
// the O(1) window counters, while the histories exist purely so Snapshot can
// report measured rates. Neither feeds the other.
type FixedWindow struct {
	mu sync.Mutex

	maxRPM int
	maxTPM int

	requestWindow time.Duration
	tokenWindow   time.Duration

	// Fixed-window admission state. Counters reset to zero exactly when the
	// elapsed time since the window start reaches the window size, and never
	// between.
	requestWindowStart time.Time
	windowRequests     int
	tokenWindowStart   time.Time
	windowTokens       int

	// Sliding reporting histories, time-ordered, appended at the tail and
	// pruned from the head once entries age past the reporting window.
	requestTimes []time.Time
	tokenUsage   []tokenSample

	currentRPM int
	currentTPM int
}

// tokenSample is one recorded request's token usage.
type tokenSample struct {
	at     time.Time
	tokens int
}

var _ Limiter = (*FixedWindow)(nil)

// NewFixedWindow creates a fixed-window limiter. Zero caps disable the
// corresponding dimension; zero window sizes take the package defaults.
func NewFixedWindow(cfg Config) *FixedWindow {
	if cfg.RequestWindow <= 0 {
		cfg.RequestWindow = DefaultRequestWindow
	}
	if cfg.TokenWindow <= 0 {
		cfg.TokenWindow = DefaultTokenWindow
	}

	now := time.Now()
	return &FixedWindow{
		maxRPM:             cfg.MaxRPM,
		maxTPM:             cfg.MaxTPM,
		requestWindow:      cfg.RequestWindow,
		tokenWindow:        cfg.TokenWindow,
		requestWindowStart: now,
		tokenWindowStart:   now,
	}
}

// ShouldLimit reports whether the next request should be deferred.
//
// A request is limited when the request window has already reached its quota,
// or when a non-zero token estimate would push the token window past its
// quota. With both caps at zero this always returns false.
func (fw *FixedWindow) ShouldLimit(tokens int) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.refreshWindows(time.Now())

	maxRequests, maxTokens := fw.windowQuotas()

	if maxRequests > 0 && float64(fw.windowRequests) >= maxRequests {
		return true
	}
	if maxTokens > 0 && tokens > 0 && float64(fw.windowTokens+tokens) > maxTokens {
		return true
	}
	return false
}

// RecordRequest records one completed request against the current admission
// windows and appends it to the reporting histories.
//
// Recording does not trigger a window rollover; an expired window is advanced
// by the next ShouldLimit or Snapshot call.
func (fw *FixedWindow) RecordRequest(tokens int) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	now := time.Now()

	fw.requestTimes = append(fw.requestTimes, now)
	if tokens > 0 {
		fw.tokenUsage = append(fw.tokenUsage, tokenSample{at: now, tokens: tokens})
		fw.windowTokens += tokens
	}
	fw.windowRequests++

	fw.calculateRates(now)
}

// Snapshot returns the current rate and window state.
func (fw *FixedWindow) Snapshot() Snapshot {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	now := time.Now()
	fw.refreshWindows(now)
	fw.calculateRates(now)

	maxRequests, maxTokens := fw.windowQuotas()
	windowRPM, windowTPM := fw.windowRates(now)

	return Snapshot{
		RPM:                fw.currentRPM,
		TPM:                fw.currentTPM,
		MaxRPM:             fw.maxRPM,
		MaxTPM:             fw.maxTPM,
		RequestWindow:      fw.requestWindow,
		TokenWindow:        fw.tokenWindow,
		WindowRequests:     fw.windowRequests,
		WindowTokens:       fw.windowTokens,
		WindowMaxRequests:  maxRequests,
		WindowMaxTokens:    maxTokens,
		RequestWindowStart: fw.requestWindowStart,
		TokenWindowStart:   fw.tokenWindowStart,
		WindowRPM:          windowRPM,
		WindowTPM:          windowTPM,
	}
}

// Reset clears both histories and both window counters and restarts the
// windows from now.
func (fw *FixedWindow) Reset() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	now := time.Now()
	fw.requestTimes = nil
	fw.tokenUsage = nil
	fw.requestWindowStart = now
	fw.tokenWindowStart = now
	fw.windowRequests = 0
	fw.windowTokens = 0
	fw.currentRPM = 0
	fw.currentTPM = 0
}

// SetLimits replaces both caps and resets all window and history state, so
// changing caps always restarts admission from an empty window.
func (fw *FixedWindow) SetLimits(maxRPM, maxTPM int) {
	fw.mu.Lock()
	fw.maxRPM = maxRPM
	fw.maxTPM = maxTPM
	fw.mu.Unlock()

	fw.Reset()
}

// refreshWindows advances any elapsed fixed window and prunes reporting
// history entries older than the reporting window. Caller must hold fw.mu.
func (fw *FixedWindow) refreshWindows(now time.Time) {
	if now.Sub(fw.requestWindowStart) >= fw.requestWindow {
		fw.requestWindowStart = now
		fw.windowRequests = 0
	}
	if now.Sub(fw.tokenWindowStart) >= fw.tokenWindow {
		fw.tokenWindowStart = now
		fw.windowTokens = 0
	}

	cutoff := now.Add(-reportingWindow)
	for len(fw.requestTimes) > 0 && fw.requestTimes[0].Before(cutoff) {
		fw.requestTimes = fw.requestTimes[1:]
	}
	for len(fw.tokenUsage) > 0 && fw.tokenUsage[0].at.Before(cutoff) {
		fw.tokenUsage = fw.tokenUsage[1:]
	}
}

// calculateRates recomputes the trailing-minute request and token rates from
// the reporting histories. Caller must hold fw.mu.
func (fw *FixedWindow) calculateRates(now time.Time) {
	cutoff := now.Add(-reportingWindow)

	requests := 0
	for _, ts := range fw.requestTimes {
		if !ts.Before(cutoff) {
			requests++
		}
	}
	fw.currentRPM = requests

	tokens := 0
	for _, sample := range fw.tokenUsage {
		if !sample.at.Before(cutoff) {
			tokens += sample.tokens
		}
	}
	fw.currentTPM = tokens
}

// windowQuotas returns the per-window request and token quotas scaled from
// the per-minute caps. A zero cap yields a zero quota, meaning unlimited.
// Caller must hold fw.mu.
func (fw *FixedWindow) windowQuotas() (maxRequests, maxTokens float64) {
	if fw.maxRPM > 0 {
		maxRequests = float64(fw.maxRPM) * fw.requestWindow.Seconds() / 60
	}
	if fw.maxTPM > 0 {
		maxTokens = float64(fw.maxTPM) * fw.tokenWindow.Seconds() / 60
	}
	return maxRequests, maxTokens
}

// windowRates scales the counts observed within the most recent window span
// of each dimension up to a per-minute rate. Caller must hold fw.mu.
func (fw *FixedWindow) windowRates(now time.Time) (windowRPM, windowTPM int) {
	requestCutoff := now.Add(-fw.requestWindow)
	requests := 0
	for _, ts := range fw.requestTimes {
		if !ts.Before(requestCutoff) {
			requests++
		}
	}
	windowRPM = int(float64(requests) * 60 / fw.requestWindow.Seconds())

	tokenCutoff := now.Add(-fw.tokenWindow)
	tokens := 0
	for _, sample := range fw.tokenUsage {
		if !sample.at.Before(tokenCutoff) {
			tokens += sample.tokens
		}
	}
	windowTPM = int(float64(tokens) * 60 / fw.tokenWindow.Seconds())

	return windowRPM, windowTPM
}
