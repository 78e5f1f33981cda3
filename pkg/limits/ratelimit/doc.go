// Package ratelimit provides admission-control rate limiting over the two
// resource dimensions of LLM traffic: requests per minute and tokens per minute.
//
// # Overview
//
// The package separates two concerns that are often conflated:
//
//   - Admission: a cheap O(1) fixed-window gate that decides whether the next
//     request may execute. Each dimension (requests, tokens) has its own window
//     whose counter resets entirely when the window elapses.
//   - Reporting: independent 60-second sliding histories that yield accurate
//     current rates for dashboards, pruned of stale entries on each access.
//
// # Fixed Window Algorithm
//
// The allowed quota per window is cap * window / 60, so a 60 RPM cap over a
// 10-second window admits 10 requests per window:
//
//	limiter := ratelimit.NewFixedWindow(ratelimit.Config{MaxRPM: 60, MaxTPM: 10000})
//	if limiter.ShouldLimit(0) {
//	    // Defer the request (requeue); do not execute.
//	} else {
//	    // Execute, then on success:
//	    limiter.RecordRequest(tokens)
//	}
//
// A cap of 0 disables that dimension entirely.
//
// # Boundary Bursts
//
// Fixed windows admit up to ~2x the nominal rate across a window boundary
// (a full quota late in one window followed by a full quota early in the next).
// This is the accepted cost of O(1) admission checks; callers that need
// smoother admission should choose a different Limiter implementation.
//
// # Thread Safety
//
// All limiters are safe for concurrent use. FixedWindow guards its state with
// a single mutex held only for short bookkeeping, never across caller work.
package ratelimit
