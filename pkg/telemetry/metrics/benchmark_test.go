package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func Benchmark_Collector_RecordRequest(b *testing.B) {
	registry := prometheus.NewRegistry()
	collector := NewCollector("bench", registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordRequest("api.example.com", "GET", "200", time.Millisecond)
	}
}

func Benchmark_Collector_RecordRequest_Parallel(b *testing.B) {
	registry := prometheus.NewRegistry()
	collector := NewCollector("bench", registry)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			collector.RecordRequest("api.example.com", "GET", "200", time.Millisecond)
		}
	})
}

func Benchmark_Collector_UpdateOriginHealth(b *testing.B) {
	registry := prometheus.NewRegistry()
	collector := NewCollector("bench", registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.UpdateOriginHealth("api.example.com", "origin-1", true)
	}
}

func Benchmark_Collector_RecordOriginConnectError(b *testing.B) {
	registry := prometheus.NewRegistry()
	collector := NewCollector("bench", registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordOriginConnectError("api.example.com", "origin-1")
	}
}

func Benchmark_Collector_RecordCacheHit(b *testing.B) {
	registry := prometheus.NewRegistry()
	collector := NewCollector("bench", registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordCacheHit()
	}
}

func Benchmark_Collector_RecordConfigMutation(b *testing.B) {
	registry := prometheus.NewRegistry()
	collector := NewCollector("bench", registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordConfigMutation("route", "add", "success")
	}
}

func Benchmark_CardinalityLimiter_Allow(b *testing.B) {
	limiter := NewCardinalityLimiter(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("label1")
	}
}

func Benchmark_Collector_ManyRoutes(b *testing.B) {
	registry := prometheus.NewRegistry()
	collector := NewCollector("bench", registry)

	routes := []string{"api.example.com", "static.example.com", "admin.example.com", "edge.example.com"}
	statuses := []string{"200", "404", "502"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		route := routes[i%len(routes)]
		status := statuses[i%len(statuses)]
		collector.RecordRequest(route, "GET", status, time.Millisecond)
	}
}

func Benchmark_Collector_AllMetrics(b *testing.B) {
	registry := prometheus.NewRegistry()
	collector := NewCollector("bench", registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordRequest("api.example.com", "GET", "200", time.Millisecond)
		collector.UpdateOriginHealth("api.example.com", "origin-1", true)
		collector.RecordCacheHit()
		collector.RecordConfigMutation("route", "add", "success")
	}
}
