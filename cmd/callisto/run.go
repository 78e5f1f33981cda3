package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/audit"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/dispatch"
	"mercator-hq/callisto/pkg/providers"
	"mercator-hq/callisto/pkg/server"
	"mercator-hq/callisto/pkg/tasks"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
	"mercator-hq/callisto/pkg/timer"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Callisto control server",
	Long: `Start the dispatcher and its HTTP control API with the specified
configuration.

The server listens on the configured address. Batches are submitted, the run
is started and stopped, and rate limits are adjusted through the API; the
configuration file is watched so rate limit changes apply without a restart.

Examples:
  # Start with default config
  callisto run

  # Start with custom config
  callisto run --config /etc/callisto/config.yaml

  # Override listen address
  callisto run --listen 0.0.0.0:8080

  # Validate config without starting the server
  callisto run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(&cfg.Telemetry.Logging, os.Stdout); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Callisto v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics collector (nil disables recording throughout)
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
		fmt.Println("✓ Metrics enabled")
	}

	// Audit sink (optional)
	var sink dispatch.OutcomeSink
	if cfg.Audit.Enabled {
		slog.Info("initializing audit sink", "path", cfg.Audit.Path)

		sqliteSink, err := audit.NewSQLiteSink(cfg.Audit)
		if err != nil {
			return fmt.Errorf("failed to create audit sink: %w", err)
		}
		defer sqliteSink.Close()
		sink = sqliteSink

		if cfg.Audit.PruneSchedule != "" {
			pruner := audit.NewPruner(sqliteSink, cfg.Audit)
			if err := pruner.Start(ctx); err != nil {
				slog.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer pruner.Stop()
				if next := pruner.NextRun(); next != nil {
					slog.Debug("audit retention scheduler started", "next_pruning", next)
				}
			}
		}

		fmt.Println("✓ Audit sink initialized")
	}

	// Task source
	var provider providers.Provider
	if cfg.Tasks.Source == "completion" {
		httpProvider := providers.NewHTTPProvider(cfg.Provider)
		defer httpProvider.Close()
		provider = httpProvider
	}
	source, err := tasks.NewSource(cfg.Tasks, provider)
	if err != nil {
		return fmt.Errorf("failed to create task source: %w", err)
	}
	fmt.Printf("✓ Task source: %s\n", source.Name())

	// Dispatcher
	dispatcher := dispatch.New(dispatch.Config{
		Workers:         cfg.Dispatcher.Workers,
		DequeueTimeout:  cfg.Dispatcher.DequeueTimeout,
		StopGracePeriod: cfg.Dispatcher.StopGracePeriod,
		RateLimitMode:   dispatch.RateLimitMode(cfg.RateLimit.Mode),
		MaxRPM:          cfg.RateLimit.MaxRPM,
		MaxTPM:          cfg.RateLimit.MaxTPM,
		RequestWindow:   cfg.RateLimit.RequestWindow,
		TokenWindow:     cfg.RateLimit.TokenWindow,
		Metrics:         collector,
		Sink:            sink,
	})
	fmt.Printf("✓ Dispatcher ready (%d workers, rate limit %s)\n",
		dispatcher.Workers(), cfg.RateLimit.Mode)

	// Watch the config file so rate limit changes apply without a restart
	watcher, err := config.NewWatcher(cfgFile, 0)
	if err != nil {
		slog.Warn("config watcher unavailable", "error", err)
	} else {
		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) {
				dispatcher.SetRateLimits(
					dispatch.RateLimitMode(next.RateLimit.Mode),
					next.RateLimit.MaxRPM,
					next.RateLimit.MaxTPM,
				)
				slog.Info("rate limits reloaded from config",
					"mode", next.RateLimit.Mode,
					"max_rpm", next.RateLimit.MaxRPM,
					"max_tpm", next.RateLimit.MaxTPM,
				)
			})
			if err != nil {
				slog.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	srv := server.NewServer(cfg.Server, dispatcher, source, collector)

	fmt.Println()
	fmt.Printf("✓ Control API on http://%s\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, collector.Path())
	}
	fmt.Println("\nPress Ctrl+C to stop")

	var uptime timer.Timer
	uptime.Start()

	// Blocks until a signal arrives or the listener fails
	err = srv.Start(ctx)
	uptime.Stop()

	p := dispatcher.Progress()
	fmt.Printf("\nRun summary: %d/%d tasks completed, %d errors, %d requeues, %d tokens in %s\n",
		p.Completed, p.Total, p.ErrorCount, p.RequeuedTasks, p.TotalTokens,
		uptime.Elapsed().Round(time.Second))

	return err
}
