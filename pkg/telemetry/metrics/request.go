package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks proxied request volume, latency, and response size.
//
// Metrics:
//   - granite_requests_total: total requests by route, method, status
//   - granite_request_duration_seconds: request duration histogram by route
//   - granite_response_size_bytes: response body size histogram
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
}

// NewRequestMetrics creates and registers request metrics with registry.
func NewRequestMetrics(namespace string, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of downstream requests handled, by route, method, and status.",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of downstream requests in seconds, by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		responseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "response_size_bytes",
				Help:      "Size of forwarded response bodies in bytes, by route.",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
			},
			[]string{"route"},
		),
	}

	registry.MustRegister(rm.requestsTotal, rm.requestDuration, rm.responseSize)
	return rm
}

// RecordRequest records a completed request's route, method, status, and
// duration.
func (rm *RequestMetrics) RecordRequest(route, method, status string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(route, method, status).Inc()
	rm.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordResponseSize records the size of a forwarded response body.
func (rm *RequestMetrics) RecordResponseSize(route string, sizeBytes int) {
	if sizeBytes > 0 {
		rm.responseSize.WithLabelValues(route).Observe(float64(sizeBytes))
	}
}
