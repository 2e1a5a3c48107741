// Package metrics provides Prometheus metrics for granite's proxy loop.
//
// # Overview
//
// The collector tracks four concerns: downstream request volume and
// latency, response cache hit/miss/eviction behavior, per-origin health
// and connect errors, and configuration API mutation counts.
//
// # Usage
//
//	collector := metrics.NewCollector("granite", nil)
//	collector.RecordRequest("api.example.com", "GET", "200", 42*time.Millisecond)
//	collector.UpdateOriginHealth("api.example.com", "10.0.0.1:8080", true)
//	http.Handle("/metrics", collector.Handler())
//
// # Cardinality management
//
// The collector caps the number of distinct route/method/status
// combinations tracked for request metrics at 10,000, recording any new
// combination beyond that under the route "other" to prevent unbounded memory growth from pathological routing
// configurations.
package metrics
