// Package telemetry groups granite's observability subpackages.
//
// # Components
//
//   - logging: structured request/lifecycle logging built on log/slog
//   - metrics: Prometheus counters and gauges for requests, cache, and
//     origin health, collected by metrics.Collector and served over
//     metrics.Handler
package telemetry
