package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConfigAPIMetrics tracks runtime route/cert mutations made through the
// administrative REST surface.
//
// Metrics:
//   - granite_configapi_mutations_total: mutation attempts by resource, action, status
type ConfigAPIMetrics struct {
	mutationsTotal *prometheus.CounterVec
}

// NewConfigAPIMetrics creates and registers config API metrics with registry.
func NewConfigAPIMetrics(namespace string, registry *prometheus.Registry) *ConfigAPIMetrics {
	cam := &ConfigAPIMetrics{
		mutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "configapi_mutations_total",
				Help:      "Total number of configuration API mutation attempts, by resource, action, and status.",
			},
			[]string{"resource", "action", "status"},
		),
	}

	registry.MustRegister(cam.mutationsTotal)
	return cam
}

// RecordMutation records a single route or cert mutation attempt.
// resource is "route" or "cert", action is "add" or "delete", status is
// "success" or "error".
func (cam *ConfigAPIMetrics) RecordMutation(resource, action, status string) {
	cam.mutationsTotal.WithLabelValues(resource, action, status).Inc()
}
