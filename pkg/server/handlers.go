package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"mercator-hq/callisto/pkg/dispatch"
)

// submitRequest is the body of POST /v1/tasks.
type submitRequest struct {
	// Count is the number of tasks to enqueue.
	Count int `json:"count"`
}

// submitResponse reports how many tasks were enqueued.
type submitResponse struct {
	Submitted int `json:"submitted"`
	FirstID   int `json:"first_id"`

	// Remaining counts submitted tasks not yet terminally completed,
	// including any currently executing.
	Remaining int `json:"remaining"`
}

// resetRequest is the body of POST /v1/control/reset.
type resetRequest struct {
	// Workers optionally resizes the pool; 0 keeps the current size.
	Workers int `json:"workers"`
}

// limitsRequest is the body of PUT /v1/limits.
type limitsRequest struct {
	Mode   string `json:"mode"`
	MaxRPM int    `json:"max_rpm"`
	MaxTPM int    `json:"max_tpm"`
}

// statusResponse is the generic acknowledgement body.
type statusResponse struct {
	Status  string `json:"status"`
	Running bool   `json:"running"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dispatcher.Progress())
}

func (s *Server) handleSubmitTasks(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Count <= 0 {
		writeError(w, http.StatusBadRequest, "count must be positive")
		return
	}

	s.mu.Lock()
	firstID := s.nextID
	s.nextID += req.Count
	s.mu.Unlock()

	for i := 0; i < req.Count; i++ {
		s.dispatcher.Submit(s.source.Build(firstID + i))
	}

	slog.Info("tasks submitted",
		"count", req.Count,
		"first_id", firstID,
		"source", s.source.Name(),
	)

	writeJSON(w, http.StatusAccepted, submitResponse{
		Submitted: req.Count,
		FirstID:   firstID,
		Remaining: s.dispatcher.Remaining(),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.dispatcher.Start()
	writeJSON(w, http.StatusOK, statusResponse{Status: "started", Running: s.dispatcher.Running()})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.dispatcher.Stop()
	writeJSON(w, http.StatusOK, statusResponse{Status: "stopped", Running: s.dispatcher.Running()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	// An empty body keeps the current pool size; anything else must parse.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	workers := req.Workers
	if workers <= 0 {
		workers = s.dispatcher.Workers()
	}

	s.dispatcher.Reset(workers)

	s.mu.Lock()
	s.nextID = 0
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, statusResponse{Status: "reset", Running: s.dispatcher.Running()})
}

func (s *Server) handleSetLimits(w http.ResponseWriter, r *http.Request) {
	var req limitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var mode dispatch.RateLimitMode
	switch req.Mode {
	case string(dispatch.ModeLimited):
		mode = dispatch.ModeLimited
	case string(dispatch.ModeUnlimited):
		mode = dispatch.ModeUnlimited
	default:
		writeError(w, http.StatusBadRequest, "mode must be \"limited\" or \"unlimited\"")
		return
	}
	if req.MaxRPM < 0 || req.MaxTPM < 0 {
		writeError(w, http.StatusBadRequest, "caps must not be negative")
		return
	}

	s.dispatcher.SetRateLimits(mode, req.MaxRPM, req.MaxTPM)

	slog.Info("rate limits updated",
		"mode", req.Mode,
		"max_rpm", req.MaxRPM,
		"max_tpm", req.MaxTPM,
	)

	writeJSON(w, http.StatusOK, statusResponse{Status: "limits updated", Running: s.dispatcher.Running()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
