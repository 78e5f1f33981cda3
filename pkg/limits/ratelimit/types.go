package ratelimit

import "time"

// Default window sizes for the two fixed admission windows.
const (
	// DefaultRequestWindow is the default fixed-window size for the
	// request dimension. A short window keeps admission responsive.
	DefaultRequestWindow = 10 * time.Second

	// DefaultTokenWindow is the default fixed-window size for the
	// token dimension.
	DefaultTokenWindow = time.Minute

	// reportingWindow is the trailing duration covered by the sliding
	// histories used for rate reporting.
	reportingWindow = time.Minute
)

// Limiter is the admission-control interface consumed by the dispatcher.
//
// FixedWindow is currently the sole implementation. The interface exists so
// that alternative strategies (token bucket, smoothed windows) can be slotted
// in without disturbing callers.
type Limiter interface {
	// ShouldLimit reports whether the next request should be deferred.
	// tokens is an optional pre-execution estimate of the request's token
	// cost; pass 0 when the cost is unknown, in which case only the request
	// dimension is checked. ShouldLimit is a pure admission check: it never
	// consumes quota, though it may advance expired windows.
	ShouldLimit(tokens int) bool

	// RecordRequest records one completed request and its token usage
	// against both the admission windows and the reporting histories.
	RecordRequest(tokens int)

	// Snapshot returns the current rate and window state for display.
	Snapshot() Snapshot

	// Reset clears all counters and histories and restarts both windows.
	Reset()
}

// Config contains configuration for a FixedWindow limiter.
type Config struct {
	// MaxRPM is the requests-per-minute cap. 0 means unlimited.
	MaxRPM int

	// MaxTPM is the tokens-per-minute cap. 0 means unlimited.
	MaxTPM int

	// RequestWindow is the fixed-window size for the request dimension.
	// Defaults to DefaultRequestWindow.
	RequestWindow time.Duration

	// TokenWindow is the fixed-window size for the token dimension.
	// Defaults to DefaultTokenWindow.
	TokenWindow time.Duration
}

// Snapshot contains the limiter's current rates, caps, and window state.
// Field values mirror what a dashboard needs to render both the measured
// trailing-minute rates and the live admission-window fill levels.
type Snapshot struct {
	// RPM is the measured request rate: requests recorded in the trailing
	// minute of the reporting history.
	RPM int `json:"rpm"`

	// TPM is the measured token rate: tokens recorded in the trailing
	// minute of the reporting history.
	TPM int `json:"tpm"`

	// MaxRPM and MaxTPM are the configured caps (0 = unlimited).
	MaxRPM int `json:"max_rpm"`
	MaxTPM int `json:"max_tpm"`

	// RequestWindow and TokenWindow are the configured fixed-window sizes.
	RequestWindow time.Duration `json:"request_window"`
	TokenWindow   time.Duration `json:"token_window"`

	// WindowRequests is the request count in the current fixed window.
	WindowRequests int `json:"window_requests"`

	// WindowTokens is the token count in the current fixed window.
	WindowTokens int `json:"window_tokens"`

	// WindowMaxRequests is the per-window request quota (cap * window / 60s).
	WindowMaxRequests float64 `json:"window_max_requests"`

	// WindowMaxTokens is the per-window token quota.
	WindowMaxTokens float64 `json:"window_max_tokens"`

	// RequestWindowStart and TokenWindowStart are when the current fixed
	// windows began.
	RequestWindowStart time.Time `json:"request_window_start"`
	TokenWindowStart   time.Time `json:"token_window_start"`

	// WindowRPM and WindowTPM are minute-scaled rates derived from the most
	// recent observation window (count * 60 / window). They approximate a
	// minute rate from a shorter observation span and react faster than RPM
	// and TPM, at the cost of amplifying short bursts.
	WindowRPM int `json:"window_rpm"`
	WindowTPM int `json:"window_tpm"`
}
