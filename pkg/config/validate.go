package config

import (
	"errors"
	"fmt"
)

// ErrConfigInvalid is the base error for all validation failures.
var ErrConfigInvalid = errors.New("invalid configuration")

// Validate checks the configuration for internal consistency. It is called
// by LoadConfig after defaults and overrides are applied.
func Validate(cfg *Config) error {
	if cfg.Dispatcher.Workers < 1 {
		return fmt.Errorf("%w: dispatcher.workers must be at least 1, got %d",
			ErrConfigInvalid, cfg.Dispatcher.Workers)
	}
	if cfg.Dispatcher.DequeueTimeout <= 0 {
		return fmt.Errorf("%w: dispatcher.dequeue_timeout must be positive", ErrConfigInvalid)
	}

	switch cfg.RateLimit.Mode {
	case "unlimited", "limited":
	default:
		return fmt.Errorf("%w: rate_limit.mode must be \"unlimited\" or \"limited\", got %q",
			ErrConfigInvalid, cfg.RateLimit.Mode)
	}
	if cfg.RateLimit.MaxRPM < 0 || cfg.RateLimit.MaxTPM < 0 {
		return fmt.Errorf("%w: rate_limit caps must not be negative", ErrConfigInvalid)
	}
	if cfg.RateLimit.RequestWindow <= 0 || cfg.RateLimit.TokenWindow <= 0 {
		return fmt.Errorf("%w: rate_limit windows must be positive", ErrConfigInvalid)
	}

	switch cfg.Tasks.Source {
	case "simulated", "completion":
	default:
		return fmt.Errorf("%w: tasks.source must be \"simulated\" or \"completion\", got %q",
			ErrConfigInvalid, cfg.Tasks.Source)
	}
	sim := cfg.Tasks.Simulated
	if sim.MinLatency > sim.MaxLatency {
		return fmt.Errorf("%w: tasks.simulated.min_latency exceeds max_latency", ErrConfigInvalid)
	}
	if sim.MinTokens > sim.MaxTokens {
		return fmt.Errorf("%w: tasks.simulated.min_tokens exceeds max_tokens", ErrConfigInvalid)
	}
	if sim.ErrorRate < 0 || sim.ErrorRate > 1 {
		return fmt.Errorf("%w: tasks.simulated.error_rate must be in [0,1]", ErrConfigInvalid)
	}
	if sim.RateLimitRate < 0 || sim.RateLimitRate > 1 {
		return fmt.Errorf("%w: tasks.simulated.rate_limit_rate must be in [0,1]", ErrConfigInvalid)
	}

	if cfg.Tasks.Source == "completion" {
		if cfg.Provider.BaseURL == "" {
			return fmt.Errorf("%w: provider.base_url is required for the completion source",
				ErrConfigInvalid)
		}
		if cfg.Provider.Model == "" {
			return fmt.Errorf("%w: provider.model is required for the completion source",
				ErrConfigInvalid)
		}
	}

	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("%w: server.listen_address must not be empty", ErrConfigInvalid)
	}

	if cfg.Audit.Enabled {
		if cfg.Audit.Path == "" {
			return fmt.Errorf("%w: audit.path must not be empty when audit is enabled",
				ErrConfigInvalid)
		}
		if cfg.Audit.BufferSize < 1 {
			return fmt.Errorf("%w: audit.buffer_size must be at least 1", ErrConfigInvalid)
		}
		if cfg.Audit.RetentionDays < 0 || cfg.Audit.MaxRecords < 0 {
			return fmt.Errorf("%w: audit retention settings must not be negative", ErrConfigInvalid)
		}
	}

	return nil
}
