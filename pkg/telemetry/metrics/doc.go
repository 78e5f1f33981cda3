// Package metrics provides Prometheus metrics for the Callisto dispatcher.
//
// # Overview
//
// The Collector registers and updates all dispatcher metrics:
//
//   - Task counters: submitted, completed (by status), requeued (by reason)
//   - Histograms: task duration, tokens per task
//   - Gauges: queue size, active workers, and the snapshot rates
//     (tokens/min, requests/min, queries/sec)
//
// Counters and histograms are updated inline by the dispatcher's workers;
// the rate gauges are refreshed whenever a progress snapshot is taken, so
// they track the same numbers the control API reports.
//
// # Example
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	http.Handle("/metrics", collector.Handler())
//
// All Collector methods are safe to call on a nil receiver, so components
// can carry an optional collector without nil checks at every call site.
package metrics
