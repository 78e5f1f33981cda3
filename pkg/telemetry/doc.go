// Package telemetry groups Callisto's observability packages.
//
// # Components
//
//   - logging: structured logging over log/slog
//   - metrics: Prometheus metrics collection and exposition
//
// # Usage
//
//	logger, err := logging.Setup(&cfg.Telemetry.Logging, os.Stdout)
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	collector.TaskCompleted("success", duration, tokens)
//	http.Handle(collector.Path(), collector.Handler())
package telemetry
