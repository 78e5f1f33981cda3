package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/callisto/pkg/config"
)

// Collector owns all Prometheus metrics for the dispatcher.
//
// Updates are cheap (pre-allocated collectors, no allocation on the hot
// path) so workers record metrics inline without batching.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	tasksSubmitted prometheus.Counter
	tasksCompleted *prometheus.CounterVec
	tasksRequeued  *prometheus.CounterVec

	taskDuration prometheus.Histogram
	taskTokens   prometheus.Histogram

	queueSize     prometheus.Gauge
	activeWorkers prometheus.Gauge

	tokensPerMinute   prometheus.Gauge
	requestsPerMinute prometheus.Gauge
	queriesPerSecond  prometheus.Gauge
}

// Requeue reasons used as the "reason" label on the requeue counter.
const (
	// ReasonAdmission marks a requeue caused by the local admission gate.
	ReasonAdmission = "admission"

	// ReasonUpstream marks a requeue caused by an upstream 429.
	ReasonUpstream = "upstream_rate_limit"
)

// NewCollector creates a metrics collector registered against the given
// registry. If registry is nil a fresh one is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "mercator"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "callisto"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Optimized for LLM request latencies (100ms - 30s)
		cfg.DurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}
	}
	if len(cfg.TokenBuckets) == 0 {
		// Optimized for per-task token counts (10 - 100K tokens)
		cfg.TokenBuckets = []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000, 100000}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		tasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks submitted to the dispatcher",
		}),
		tasksCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "tasks_completed_total",
			Help:      "Total number of terminally completed tasks by status",
		}, []string{"status"}),
		tasksRequeued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "tasks_requeued_total",
			Help:      "Total number of task requeues by reason",
		}, []string{"reason"}),

		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "task_duration_seconds",
			Help:      "Task execution duration in seconds",
			Buckets:   cfg.DurationBuckets,
		}),
		taskTokens: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "task_tokens",
			Help:      "Tokens consumed per successful task",
			Buckets:   cfg.TokenBuckets,
		}),

		queueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "queue_size",
			Help:      "Number of tasks currently queued",
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "active_workers",
			Help:      "Number of running worker goroutines",
		}),

		tokensPerMinute: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "tokens_per_minute",
			Help:      "Measured token throughput over the trailing window",
		}),
		requestsPerMinute: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "requests_per_minute",
			Help:      "Measured request throughput over the trailing window",
		}),
		queriesPerSecond: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "queries_per_second",
			Help:      "Instantaneous query rate at the last snapshot",
		}),
	}

	registry.MustRegister(
		c.tasksSubmitted,
		c.tasksCompleted,
		c.tasksRequeued,
		c.taskDuration,
		c.taskTokens,
		c.queueSize,
		c.activeWorkers,
		c.tokensPerMinute,
		c.requestsPerMinute,
		c.queriesPerSecond,
	)

	return c
}

// enabled reports whether this collector should record anything.
func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// TaskSubmitted counts one submitted task.
func (c *Collector) TaskSubmitted() {
	if !c.enabled() {
		return
	}
	c.tasksSubmitted.Inc()
}

// TaskCompleted records one terminal task execution.
func (c *Collector) TaskCompleted(status string, duration time.Duration, tokens int) {
	if !c.enabled() {
		return
	}
	c.tasksCompleted.WithLabelValues(status).Inc()
	c.taskDuration.Observe(duration.Seconds())
	if tokens > 0 {
		c.taskTokens.Observe(float64(tokens))
	}
}

// TaskRequeued counts one requeue with its reason.
func (c *Collector) TaskRequeued(reason string) {
	if !c.enabled() {
		return
	}
	c.tasksRequeued.WithLabelValues(reason).Inc()
}

// SetQueueSize updates the queue size gauge.
func (c *Collector) SetQueueSize(n int) {
	if !c.enabled() {
		return
	}
	c.queueSize.Set(float64(n))
}

// SetActiveWorkers updates the worker count gauge.
func (c *Collector) SetActiveWorkers(n int) {
	if !c.enabled() {
		return
	}
	c.activeWorkers.Set(float64(n))
}

// SetRates updates the snapshot rate gauges.
func (c *Collector) SetRates(tpm, rpm int, qps float64) {
	if !c.enabled() {
		return
	}
	c.tokensPerMinute.Set(float64(tpm))
	c.requestsPerMinute.Set(float64(rpm))
	c.queriesPerSecond.Set(qps)
}
