// Package logging provides structured logging for Callisto on top of
// log/slog.
//
// Setup parses the configured level and format, installs the matching slog
// handler as the process default, and returns it, so every component can
// take a *slog.Logger (or fall back to slog.Default()) and tag itself with
// a "component" attribute:
//
//	logger, err := logging.Setup(&cfg.Telemetry.Logging, os.Stdout)
//	if err != nil {
//	    return err
//	}
//	logger.Info("starting", "workers", cfg.Dispatcher.Workers)
//
// Formats: "json" (machine-readable, the default), "text" (logfmt-style
// console output).
package logging
