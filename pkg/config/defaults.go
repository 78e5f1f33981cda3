package config

import "time"

// ApplyDefaults fills in default values for any zero-valued fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Dispatcher.Workers == 0 {
		cfg.Dispatcher.Workers = 2
	}
	if cfg.Dispatcher.DequeueTimeout == 0 {
		cfg.Dispatcher.DequeueTimeout = 500 * time.Millisecond
	}
	if cfg.Dispatcher.StopGracePeriod == 0 {
		cfg.Dispatcher.StopGracePeriod = time.Second
	}

	if cfg.RateLimit.Mode == "" {
		cfg.RateLimit.Mode = "unlimited"
	}
	if cfg.RateLimit.RequestWindow == 0 {
		cfg.RateLimit.RequestWindow = 10 * time.Second
	}
	if cfg.RateLimit.TokenWindow == 0 {
		cfg.RateLimit.TokenWindow = time.Minute
	}

	if cfg.Tasks.Source == "" {
		cfg.Tasks.Source = "simulated"
	}
	if cfg.Tasks.Prompt == "" {
		cfg.Tasks.Prompt = "Task {id}: Generate a random number."
	}
	if cfg.Tasks.Simulated.MinLatency == 0 {
		cfg.Tasks.Simulated.MinLatency = 500 * time.Millisecond
	}
	if cfg.Tasks.Simulated.MaxLatency == 0 {
		cfg.Tasks.Simulated.MaxLatency = 3 * time.Second
	}
	if cfg.Tasks.Simulated.MinTokens == 0 {
		cfg.Tasks.Simulated.MinTokens = 5
	}
	if cfg.Tasks.Simulated.MaxTokens == 0 {
		cfg.Tasks.Simulated.MaxTokens = 100
	}

	if cfg.Provider.Name == "" {
		cfg.Provider.Name = "openai"
	}
	if cfg.Provider.MaxTokens == 0 {
		cfg.Provider.MaxTokens = 100
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 15 * time.Second
	}
	if cfg.Provider.MaxIdleConns == 0 {
		cfg.Provider.MaxIdleConns = 100
	}
	if cfg.Provider.MaxIdleConnsPerHost == 0 {
		cfg.Provider.MaxIdleConnsPerHost = 10
	}
	if cfg.Provider.IdleConnTimeout == 0 {
		cfg.Provider.IdleConnTimeout = 90 * time.Second
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "127.0.0.1:8090"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "mercator"
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = "callisto"
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = "/metrics"
	}

	if cfg.Audit.Path == "" {
		cfg.Audit.Path = "data/outcomes.db"
	}
	if cfg.Audit.BufferSize == 0 {
		cfg.Audit.BufferSize = 1024
	}
}
