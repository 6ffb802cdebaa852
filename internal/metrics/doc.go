// Package metrics keeps running statistics about health-check runs.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Runs started and completed per environment
//   - Checks and healthy checks per endpoint
//   - Probe latency with percentile calculations (P50, P95, P99)
//   - HTTP status code distribution
//   - The most recent health status of each endpoint
//
// The collector runs in a dedicated goroutine. Events are offered with
// non-blocking sends, so a full buffer drops events rather than stalling a
// run.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	engine := healthcheck.NewEngine(client,
//		healthcheck.WithObserver(collector.Observer("dev")))
//
//	snapshot := collector.Snapshot()
//
// Statistics live only for the lifetime of the process.
package metrics
