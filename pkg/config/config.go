package config

import "time"

// Config is the root configuration structure for Callisto.
type Config struct {
	// Dispatcher contains worker pool configuration.
	Dispatcher DispatcherConfig `yaml:"dispatcher"`

	// RateLimit contains admission-control configuration.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Tasks selects and configures the task source.
	Tasks TasksConfig `yaml:"tasks"`

	// Provider configures the LLM provider used by the completion source.
	Provider ProviderConfig `yaml:"provider"`

	// Server contains the HTTP control API configuration.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Audit configures the SQLite outcome sink.
	Audit AuditConfig `yaml:"audit"`
}

// DispatcherConfig contains configuration for the worker pool.
type DispatcherConfig struct {
	// Workers is the number of concurrent worker goroutines.
	// Default: 2
	Workers int `yaml:"workers"`

	// DequeueTimeout bounds how long an idle worker blocks on the queue
	// before re-checking the running flag.
	// Default: 500ms
	DequeueTimeout time.Duration `yaml:"dequeue_timeout"`

	// StopGracePeriod is how long Stop waits for each worker to finish
	// its current task.
	// Default: 1s
	StopGracePeriod time.Duration `yaml:"stop_grace_period"`
}

// RateLimitConfig contains admission-control configuration.
type RateLimitConfig struct {
	// Mode is "unlimited" or "limited".
	// Default: "unlimited"
	Mode string `yaml:"mode"`

	// MaxRPM is the requests-per-minute cap (0 = unlimited).
	MaxRPM int `yaml:"max_rpm"`

	// MaxTPM is the tokens-per-minute cap (0 = unlimited).
	MaxTPM int `yaml:"max_tpm"`

	// RequestWindow is the fixed admission window for the request
	// dimension.
	// Default: 10s
	RequestWindow time.Duration `yaml:"request_window"`

	// TokenWindow is the fixed admission window for the token dimension.
	// Default: 60s
	TokenWindow time.Duration `yaml:"token_window"`
}

// TasksConfig selects and configures the task source.
type TasksConfig struct {
	// Source is "simulated" or "completion".
	// Default: "simulated"
	Source string `yaml:"source"`

	// Prompt is the prompt template for the completion source. The task id
	// is substituted for "{id}".
	Prompt string `yaml:"prompt"`

	// Simulated configures the simulated source.
	Simulated SimulatedConfig `yaml:"simulated"`
}

// SimulatedConfig configures the simulated task source used for demos and
// load tests.
type SimulatedConfig struct {
	// MinLatency and MaxLatency bound the simulated per-task latency.
	// Defaults: 500ms and 3s
	MinLatency time.Duration `yaml:"min_latency"`
	MaxLatency time.Duration `yaml:"max_latency"`

	// MinTokens and MaxTokens bound the simulated token usage.
	// Defaults: 5 and 100
	MinTokens int `yaml:"min_tokens"`
	MaxTokens int `yaml:"max_tokens"`

	// ErrorRate is the probability (0.0-1.0) of a terminal failure.
	ErrorRate float64 `yaml:"error_rate"`

	// RateLimitRate is the probability (0.0-1.0) of a simulated upstream
	// 429 rejection.
	RateLimitRate float64 `yaml:"rate_limit_rate"`
}

// ProviderConfig configures the OpenAI-compatible provider.
type ProviderConfig struct {
	// Name identifies the provider in logs and errors.
	// Default: "openai"
	Name string `yaml:"name"`

	// BaseURL is the API base URL (e.g. "https://api.openai.com/v1").
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token. Prefer the CALLISTO_PROVIDER_API_KEY
	// environment variable over placing the key in the file.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier sent with each completion request.
	Model string `yaml:"model"`

	// MaxTokens caps the completion length per request.
	// Default: 100
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds each request.
	// Default: 15s
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns and MaxIdleConnsPerHost tune the connection pool.
	// Defaults: 100 and 10
	MaxIdleConns        int `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle connections are kept.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// ServerConfig contains configuration for the HTTP control server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log entries.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled controls whether metrics are recorded and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace and Subsystem prefix every metric name.
	// Defaults: "mercator" and "callisto"
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`

	// Path is where the exposition handler is mounted.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// DurationBuckets overrides the task duration histogram buckets.
	DurationBuckets []float64 `yaml:"duration_buckets"`

	// TokenBuckets overrides the per-task token histogram buckets.
	TokenBuckets []float64 `yaml:"token_buckets"`
}

// AuditConfig configures the SQLite outcome sink.
type AuditConfig struct {
	// Enabled controls whether terminal outcomes are exported.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file path.
	// Default: "data/outcomes.db"
	Path string `yaml:"path"`

	// BufferSize is the in-memory buffer between workers and the writer.
	// Outcomes are dropped, and counted, when the buffer is full.
	// Default: 1024
	BufferSize int `yaml:"buffer_size"`

	// RetentionDays deletes records older than this many days (0 keeps
	// everything).
	RetentionDays int `yaml:"retention_days"`

	// MaxRecords caps the table size; the oldest rows are pruned first
	// (0 = no cap).
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression for scheduled pruning
	// (e.g. "0 3 * * *" for daily at 3 AM). Empty disables the scheduler.
	PruneSchedule string `yaml:"prune_schedule"`
}
