package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "callisto",
	Short: "Callisto - concurrent batch task dispatcher",
	Long: `Callisto is a concurrent batch task dispatcher with rate-limit
admission control.

It runs a bounded worker pool over a FIFO task queue, providing:
  - Dual fixed-window admission control (requests and tokens per minute)
  - Sliding-window throughput reporting (TPM, RPM, QPS)
  - Retry-by-requeue for admission deferrals and upstream 429 rejections
  - An HTTP control API for batch submission and live limit changes
  - Optional SQLite audit export of terminal outcomes

For more information, visit: https://github.com/mercator-hq/callisto`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
