package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector orchestrates granite's Prometheus metrics: request volume and
// latency, response cache behavior, per-origin health, and config API
// mutation counts. It owns the registry every sub-metric type registers
// into.
type Collector struct {
	namespace string
	registry  *prometheus.Registry

	request   *RequestMetrics
	cache     *CacheMetrics
	origin    *OriginMetrics
	configAPI *ConfigAPIMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a metrics collector under namespace, registering all
// sub-metrics with registry. If registry is nil, a fresh prometheus.Registry
// is created.
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = "granite"
	}

	return &Collector{
		namespace:          namespace,
		registry:           registry,
		request:            NewRequestMetrics(namespace, registry),
		cache:              NewCacheMetrics(namespace, registry),
		origin:             NewOriginMetrics(namespace, registry),
		configAPI:          NewConfigAPIMetrics(namespace, registry),
		cardinalityLimiter: NewCardinalityLimiter(10000),
	}
}

// RecordRequest records a completed downstream request.
func (c *Collector) RecordRequest(route, method, status string, duration time.Duration) {
	labelSet := fmt.Sprintf("request:%s:%s:%s", route, method, status)
	if !c.cardinalityLimiter.Allow(labelSet) {
		route = "other"
	}
	c.request.RecordRequest(route, method, status, duration)
}

// RecordResponseSize records the size of a forwarded response body.
func (c *Collector) RecordResponseSize(route string, sizeBytes int) {
	c.request.RecordResponseSize(route, sizeBytes)
}

// RecordCacheHit records a response cache hit.
func (c *Collector) RecordCacheHit() { c.cache.RecordHit() }

// RecordCacheMiss records a response cache miss.
func (c *Collector) RecordCacheMiss() { c.cache.RecordMiss() }

// RecordCacheEviction records an LRU eviction from the response cache.
func (c *Collector) RecordCacheEviction() { c.cache.RecordEviction() }

// SetCacheEntries sets the current response cache entry count.
func (c *Collector) SetCacheEntries(n int) { c.cache.SetEntries(n) }

// UpdateOriginHealth sets an origin's health gauge for a route.
func (c *Collector) UpdateOriginHealth(route, origin string, up bool) {
	c.origin.UpdateHealth(route, origin, up)
}

// RecordOriginSelected records that PickNext chose origin for route.
func (c *Collector) RecordOriginSelected(route, origin string) {
	c.origin.RecordSelected(route, origin)
}

// RecordOriginConnectError records an upstream connect or protocol error.
func (c *Collector) RecordOriginConnectError(route, origin string) {
	c.origin.RecordConnectError(route, origin)
}

// RecordConfigMutation records a route or cert mutation attempt made through
// the configuration API.
func (c *Collector) RecordConfigMutation(resource, action, status string) {
	c.configAPI.RecordMutation(resource, action, status)
}

// Registry returns the Prometheus registry this collector registers into.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations tracked per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
