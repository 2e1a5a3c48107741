package metrics

import "github.com/prometheus/client_golang/prometheus"

// OriginMetrics tracks per-origin health and connection outcomes within a
// route's origin group.
//
// Metrics:
//   - granite_origin_health: 1=up, 0=marked down, by route and origin
//   - granite_origin_selected_total: times an origin was picked by PickNext
//   - granite_origin_connect_errors_total: upstream connect/protocol errors
type OriginMetrics struct {
	health        *prometheus.GaugeVec
	selectedTotal *prometheus.CounterVec
	connectErrors *prometheus.CounterVec
}

// NewOriginMetrics creates and registers origin metrics with registry.
func NewOriginMetrics(namespace string, registry *prometheus.Registry) *OriginMetrics {
	om := &OriginMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "origin_health",
				Help:      "Origin health status (1=up, 0=marked down), by route and origin.",
			},
			[]string{"route", "origin"},
		),
		selectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "origin_selected_total",
				Help:      "Total number of times an origin was selected to serve a request.",
			},
			[]string{"route", "origin"},
		),
		connectErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "origin_connect_errors_total",
				Help:      "Total number of upstream connect or protocol errors, by route and origin.",
			},
			[]string{"route", "origin"},
		),
	}

	registry.MustRegister(om.health, om.selectedTotal, om.connectErrors)
	return om
}

// UpdateHealth sets the health gauge for an origin within a route.
func (om *OriginMetrics) UpdateHealth(route, origin string, up bool) {
	value := 0.0
	if up {
		value = 1.0
	}
	om.health.WithLabelValues(route, origin).Set(value)
}

// RecordSelected records that an origin was picked to serve a request.
func (om *OriginMetrics) RecordSelected(route, origin string) {
	om.selectedTotal.WithLabelValues(route, origin).Inc()
}

// RecordConnectError records a connect or protocol error against an origin.
func (om *OriginMetrics) RecordConnectError(route, origin string) {
	om.connectErrors.WithLabelValues(route, origin).Inc()
}
