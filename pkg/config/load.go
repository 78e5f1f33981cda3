package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults and
// environment variable overrides, and validates the result.
//
// Environment variables follow the naming convention CALLISTO_SECTION_FIELD
// (e.g. CALLISTO_SERVER_LISTEN_ADDRESS) and always take precedence over the
// file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ParseConfig parses raw YAML into a Config with defaults applied. It does
// not apply environment overrides or validate; LoadConfig does both.
func ParseConfig(data []byte) (*Config, error) {
	// Booleans that default to true must be pre-set: yaml leaves absent
	// fields untouched.
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = true

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("CALLISTO_DISPATCHER_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Dispatcher.Workers = n
		}
	}

	if val := os.Getenv("CALLISTO_RATE_LIMIT_MODE"); val != "" {
		cfg.RateLimit.Mode = val
	}
	if val := os.Getenv("CALLISTO_RATE_LIMIT_MAX_RPM"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.RateLimit.MaxRPM = n
		}
	}
	if val := os.Getenv("CALLISTO_RATE_LIMIT_MAX_TPM"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.RateLimit.MaxTPM = n
		}
	}

	if val := os.Getenv("CALLISTO_TASKS_SOURCE"); val != "" {
		cfg.Tasks.Source = val
	}

	if val := os.Getenv("CALLISTO_PROVIDER_BASE_URL"); val != "" {
		cfg.Provider.BaseURL = val
	}
	if val := os.Getenv("CALLISTO_PROVIDER_API_KEY"); val != "" {
		cfg.Provider.APIKey = val
	}
	if val := os.Getenv("CALLISTO_PROVIDER_MODEL"); val != "" {
		cfg.Provider.Model = val
	}
	if val := os.Getenv("CALLISTO_PROVIDER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Provider.Timeout = d
		}
	}

	if val := os.Getenv("CALLISTO_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}

	if val := os.Getenv("CALLISTO_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CALLISTO_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}

	if val := os.Getenv("CALLISTO_AUDIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_AUDIT_PATH"); val != "" {
		cfg.Audit.Path = val
	}
}
