// Package timer provides a small stopwatch for measuring run durations.
package timer

import (
	"sync"
	"time"
)

// Timer is a restartable stopwatch. The zero value is ready to use.
// All methods are safe for concurrent use.
type Timer struct {
	mu      sync.Mutex
	start   time.Time
	end     time.Time
	running bool
}

// Start starts (or restarts) the timer.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.start = time.Now()
	t.end = time.Time{}
	t.running = true
}

// Stop stops the timer. Stopping an already stopped timer is a no-op.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		t.end = time.Now()
		t.running = false
	}
}

// Elapsed returns the time since Start while running, the final duration
// after Stop, and zero for a timer that was never started.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.running:
		return time.Since(t.start)
	case !t.start.IsZero() && !t.end.IsZero():
		return t.end.Sub(t.start)
	default:
		return 0
	}
}

// Running reports whether the timer is currently running.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Reset returns the timer to its initial state.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.start = time.Time{}
	t.end = time.Time{}
	t.running = false
}
