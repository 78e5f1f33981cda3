// Package config defines and loads the Callisto configuration.
//
// Configuration is a YAML file with sections for the dispatcher, rate
// limits, task source, provider, control server, telemetry, and the audit
// sink. Loading applies defaults, then environment variable overrides
// (CALLISTO_SECTION_FIELD), then validation:
//
//	cfg, err := config.LoadConfig("config.yaml")
//
// A Watcher can observe the config file and hot-apply rate-limit changes to
// a running dispatcher without a restart.
package config
