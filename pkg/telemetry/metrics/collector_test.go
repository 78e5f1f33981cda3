package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/callisto/pkg/config"
)

func testCollector(t *testing.T) *Collector {
	t.Helper()
	return NewCollector(&config.MetricsConfig{Enabled: true}, prometheus.NewRegistry())
}

func TestCollector_Counters(t *testing.T) {
	c := testCollector(t)

	c.TaskSubmitted()
	c.TaskSubmitted()
	c.TaskCompleted("success", 250*time.Millisecond, 42)
	c.TaskCompleted("error", 10*time.Millisecond, 0)
	c.TaskRequeued(ReasonAdmission)
	c.TaskRequeued(ReasonAdmission)
	c.TaskRequeued(ReasonUpstream)

	if got := testutil.ToFloat64(c.tasksSubmitted); got != 2 {
		t.Errorf("tasks_submitted_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.tasksCompleted.WithLabelValues("success")); got != 1 {
		t.Errorf("tasks_completed_total{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.tasksCompleted.WithLabelValues("error")); got != 1 {
		t.Errorf("tasks_completed_total{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.tasksRequeued.WithLabelValues(ReasonAdmission)); got != 2 {
		t.Errorf("tasks_requeued_total{admission} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.tasksRequeued.WithLabelValues(ReasonUpstream)); got != 1 {
		t.Errorf("tasks_requeued_total{upstream} = %v, want 1", got)
	}
}

func TestCollector_Gauges(t *testing.T) {
	c := testCollector(t)

	c.SetQueueSize(7)
	c.SetActiveWorkers(3)
	c.SetRates(1200, 40, 0.66)

	if got := testutil.ToFloat64(c.queueSize); got != 7 {
		t.Errorf("queue_size = %v, want 7", got)
	}
	if got := testutil.ToFloat64(c.activeWorkers); got != 3 {
		t.Errorf("active_workers = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.tokensPerMinute); got != 1200 {
		t.Errorf("tokens_per_minute = %v, want 1200", got)
	}
	if got := testutil.ToFloat64(c.requestsPerMinute); got != 40 {
		t.Errorf("requests_per_minute = %v, want 40", got)
	}
	if got := testutil.ToFloat64(c.queriesPerSecond); got != 0.66 {
		t.Errorf("queries_per_second = %v, want 0.66", got)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	// A nil collector must be a silent no-op
	c.TaskSubmitted()
	c.TaskCompleted("success", time.Second, 10)
	c.TaskRequeued(ReasonAdmission)
	c.SetQueueSize(1)
	c.SetActiveWorkers(1)
	c.SetRates(1, 1, 1)

	if c.Path() != "/metrics" {
		t.Errorf("nil collector Path() = %q, want /metrics", c.Path())
	}
}

func TestCollector_DisabledRecordsNothing(t *testing.T) {
	c := NewCollector(&config.MetricsConfig{Enabled: false}, prometheus.NewRegistry())

	c.TaskSubmitted()
	if got := testutil.ToFloat64(c.tasksSubmitted); got != 0 {
		t.Errorf("disabled collector recorded %v submissions", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := testCollector(t)
	c.TaskSubmitted()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mercator_callisto_tasks_submitted_total") {
		t.Error("expected exposition output to contain the submitted counter")
	}
}

func TestCollector_Path(t *testing.T) {
	c := NewCollector(&config.MetricsConfig{Enabled: true, Path: "/internal/metrics"}, nil)
	if c.Path() != "/internal/metrics" {
		t.Errorf("Path() = %q, want /internal/metrics", c.Path())
	}
}
