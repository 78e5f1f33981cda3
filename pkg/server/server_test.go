package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/dispatch"
	"mercator-hq/callisto/pkg/tasks"
)

func testServer(t *testing.T) (*Server, *dispatch.Dispatcher) {
	t.Helper()

	d := dispatch.New(dispatch.Config{
		Workers:         2,
		DequeueTimeout:  20 * time.Millisecond,
		StopGracePeriod: time.Second,
	})
	t.Cleanup(d.Stop)

	src := tasks.NewSimulatedSource(config.SimulatedConfig{
		MinLatency: time.Millisecond,
		MaxLatency: 2 * time.Millisecond,
		MinTokens:  5,
		MaxTokens:  10,
	})

	return NewServer(config.ServerConfig{}, d, src, nil), d
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reqBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(t, s.Handler(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestServer_SubmitTasks(t *testing.T) {
	s, d := testServer(t)
	h := s.Handler()

	rec := doRequest(t, h, http.MethodPost, "/v1/tasks", `{"count": 5}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp submitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Submitted != 5 || resp.FirstID != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Remaining != 5 {
		t.Errorf("expected 5 remaining tasks in response, got %d", resp.Remaining)
	}
	if d.Remaining() != 5 {
		t.Errorf("expected 5 queued tasks, got %d", d.Remaining())
	}

	// Ids continue from where the last batch ended
	rec = doRequest(t, h, http.MethodPost, "/v1/tasks", `{"count": 3}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.FirstID != 5 {
		t.Errorf("expected first id 5, got %d", resp.FirstID)
	}
}

func TestServer_SubmitTasksRejectsBadCount(t *testing.T) {
	s, _ := testServer(t)
	h := s.Handler()

	for _, body := range []string{`{"count": 0}`, `{"count": -3}`, `not json`} {
		rec := doRequest(t, h, http.MethodPost, "/v1/tasks", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestServer_StartStopReset(t *testing.T) {
	s, d := testServer(t)
	h := s.Handler()

	rec := doRequest(t, h, http.MethodPost, "/v1/control/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", rec.Code)
	}
	if !d.Running() {
		t.Error("expected dispatcher to be running after start")
	}

	rec = doRequest(t, h, http.MethodPost, "/v1/control/stop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d", rec.Code)
	}
	if d.Running() {
		t.Error("expected dispatcher to be stopped after stop")
	}

	doRequest(t, h, http.MethodPost, "/v1/tasks", `{"count": 4}`)
	rec = doRequest(t, h, http.MethodPost, "/v1/control/reset", `{"workers": 3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", rec.Code)
	}
	if d.Remaining() != 0 {
		t.Errorf("expected empty queue after reset, got %d", d.Remaining())
	}
	if d.Workers() != 3 {
		t.Errorf("expected 3 workers after reset, got %d", d.Workers())
	}

	// Task ids restart from zero after a reset
	rec = doRequest(t, h, http.MethodPost, "/v1/tasks", `{"count": 1}`)
	var resp submitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.FirstID != 0 {
		t.Errorf("expected first id 0 after reset, got %d", resp.FirstID)
	}
}

func TestServer_ResetBodyHandling(t *testing.T) {
	s, d := testServer(t)
	h := s.Handler()

	// An empty body keeps the current pool size.
	rec := doRequest(t, h, http.MethodPost, "/v1/control/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("empty body: expected 200, got %d", rec.Code)
	}
	if d.Workers() != 2 {
		t.Errorf("expected pool size preserved, got %d", d.Workers())
	}

	// A body that fails to parse must be rejected, not treated as empty.
	for _, body := range []string{`{"workers": "four"}`, `not json`} {
		rec = doRequest(t, h, http.MethodPost, "/v1/control/reset", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
	if d.Workers() != 2 {
		t.Errorf("expected pool size unchanged after rejected resets, got %d", d.Workers())
	}
}

func TestServer_SetLimits(t *testing.T) {
	s, d := testServer(t)
	h := s.Handler()

	rec := doRequest(t, h, http.MethodPut, "/v1/limits",
		`{"mode": "limited", "max_rpm": 120, "max_tpm": 9000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	p := d.Progress()
	if p.RateLimitMode != dispatch.ModeLimited {
		t.Errorf("expected limited mode, got %q", p.RateLimitMode)
	}
	if p.RateLimit == nil || p.RateLimit.MaxRPM != 120 || p.RateLimit.MaxTPM != 9000 {
		t.Errorf("unexpected rate limit info: %+v", p.RateLimit)
	}

	rec = doRequest(t, h, http.MethodPut, "/v1/limits", `{"mode": "unlimited"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if p := d.Progress(); p.RateLimitMode != dispatch.ModeUnlimited {
		t.Errorf("expected unlimited mode, got %q", p.RateLimitMode)
	}
}

func TestServer_SetLimitsRejectsBadInput(t *testing.T) {
	s, _ := testServer(t)
	h := s.Handler()

	for _, body := range []string{
		`{"mode": "bogus"}`,
		`{"mode": "limited", "max_rpm": -1}`,
		`not json`,
	} {
		rec := doRequest(t, h, http.MethodPut, "/v1/limits", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestServer_Progress(t *testing.T) {
	s, d := testServer(t)
	h := s.Handler()

	doRequest(t, h, http.MethodPost, "/v1/tasks", `{"count": 3}`)
	d.Start()
	defer d.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p := d.Progress(); p.Completed == 3 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec := doRequest(t, h, http.MethodGet, "/v1/progress", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var p dispatch.Progress
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to decode progress: %v", err)
	}
	if p.Completed != 3 || p.Total != 3 {
		t.Errorf("expected 3/3 complete, got %d/%d", p.Completed, p.Total)
	}
	if len(p.Results) != 3 {
		t.Errorf("expected 3 results, got %d", len(p.Results))
	}
}

func TestServer_ShutdownStopsDispatcher(t *testing.T) {
	s, d := testServer(t)
	d.Start()

	s.mu.Lock()
	s.isRunning = true
	s.mu.Unlock()

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if d.Running() {
		t.Error("expected dispatcher to be stopped after shutdown")
	}
}
