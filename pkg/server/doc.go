// Package server exposes the HTTP control API for the dispatcher.
//
// The API is deliberately small: submit tasks, start/stop/reset the run,
// adjust rate limits at runtime, and read progress. The server also serves
// the health and Prometheus metrics endpoints and handles graceful shutdown
// on SIGTERM/SIGINT.
//
// # Routes
//
//   - GET  /v1/progress      - Progress snapshot (counters, rates, results)
//   - POST /v1/tasks         - Enqueue a batch of tasks
//   - POST /v1/control/start - Start processing
//   - POST /v1/control/stop  - Stop processing (queue preserved)
//   - POST /v1/control/reset - Reset all state
//   - PUT  /v1/limits        - Change rate limit mode and caps
//   - GET  /healthz          - Liveness probe
//   - GET  /metrics          - Prometheus metrics (when enabled)
package server
