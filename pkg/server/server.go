package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/dispatch"
	"mercator-hq/callisto/pkg/tasks"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

// Server is the HTTP control API for the dispatcher.
type Server struct {
	config     config.ServerConfig
	dispatcher *dispatch.Dispatcher
	source     tasks.Source
	metrics    *metrics.Collector

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool

	// nextID hands out task ids, guarded by mu
	nextID int
}

// NewServer creates a control server over the dispatcher.
// The metrics collector may be nil when metrics are disabled.
func NewServer(cfg config.ServerConfig, d *dispatch.Dispatcher, src tasks.Source, mc *metrics.Collector) *Server {
	return &Server{
		config:       cfg,
		dispatcher:   d,
		source:       src,
		metrics:      mc,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting control server",
			"address", s.config.ListenAddress,
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server and stops the dispatcher.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		// Workers finish their current task before the process exits
		s.dispatcher.Stop()

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("control server stopped")
	})

	return shutdownErr
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/progress", s.handleProgress)
	mux.HandleFunc("POST /v1/tasks", s.handleSubmitTasks)
	mux.HandleFunc("POST /v1/control/start", s.handleStart)
	mux.HandleFunc("POST /v1/control/stop", s.handleStop)
	mux.HandleFunc("POST /v1/control/reset", s.handleReset)
	mux.HandleFunc("PUT /v1/limits", s.handleSetLimits)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.metrics != nil {
		mux.Handle("GET "+s.metrics.Path(), s.metrics.Handler())
	}

	return logRequests(mux)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// logRequests logs each request at debug level.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
		)
		next.ServeHTTP(w, r)
	})
}
