package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics tracks the response cache's hit/miss/eviction behavior.
//
// Metrics:
//   - granite_cache_hits_total
//   - granite_cache_misses_total
//   - granite_cache_entries
//   - granite_cache_evictions_total
type CacheMetrics struct {
	hitsTotal      prometheus.Counter
	missesTotal    prometheus.Counter
	entries        prometheus.Gauge
	evictionsTotal prometheus.Counter
}

// NewCacheMetrics creates and registers cache metrics with registry.
func NewCacheMetrics(namespace string, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of response cache hits.",
		}),
		missesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of response cache misses.",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Current number of entries held in the response cache.",
		}),
		evictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of LRU evictions from the response cache.",
		}),
	}

	registry.MustRegister(cm.hitsTotal, cm.missesTotal, cm.entries, cm.evictionsTotal)
	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit() { cm.hitsTotal.Inc() }

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss() { cm.missesTotal.Inc() }

// RecordEviction records an LRU eviction.
func (cm *CacheMetrics) RecordEviction() { cm.evictionsTotal.Inc() }

// SetEntries sets the current entry count gauge.
func (cm *CacheMetrics) SetEntries(n int) { cm.entries.Set(float64(n)) }
