// Callisto is a concurrent batch task dispatcher with rate-limit admission
// control.
//
// It runs a bounded worker pool over a FIFO task queue, gates execution
// through configurable requests-per-minute and tokens-per-minute windows,
// and reports live throughput (TPM, RPM, QPS) over an HTTP control API.
//
// Usage:
//
//	# Start with default configuration
//	callisto run
//
//	# Start with a custom configuration file
//	callisto run --config /path/to/config.yaml
//
//	# Show version information
//	callisto version
//
// For complete documentation, see: https://github.com/mercator-hq/callisto
package main

func main() {
	Execute()
}
