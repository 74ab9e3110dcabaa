package metrics

import (
	"sync"
	"sync/atomic"
)

// MetricKey is a strongly typed metric identifier.
type MetricKey string

// Metric keys (centralized)
const (
	// Store
	KeysTotal          MetricKey = "kv_keys"
	GetHitsTotal       MetricKey = "kv_get_hits_total"
	GetMissesTotal     MetricKey = "kv_get_misses_total"
	LazyExpiredTotal   MetricKey = "kv_lazy_expired_total"
	ActiveExpiredTotal MetricKey = "kv_active_expired_total"

	// Commands
	CommandsTotal       MetricKey = "kv_commands_total"
	ProtocolErrorsTotal MetricKey = "kv_protocol_errors_total"

	// TTL
	TTLCleanupRunsTotal MetricKey = "ttl_cleanup_runs_total"
	TTLKeysRemovedTotal MetricKey = "ttl_keys_removed_total"

	// Connections
	ConnAcceptedTotal MetricKey = "conn_accepted_total"
	ConnActive        MetricKey = "conn_active"
	ConnErrorsTotal   MetricKey = "conn_errors_total"
)

// gauges are reported as prometheus gauges, everything else as counters.
var gauges = map[MetricKey]bool{
	KeysTotal:  true,
	ConnActive: true,
}

// Registry stores all metrics.
type Registry struct {
	mu       sync.RWMutex
	counters map[MetricKey]*int64
}

// NewRegistry creates a metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[MetricKey]*int64),
	}
}

// Inc increments a metric by 1.
func (r *Registry) Inc(key MetricKey) {
	r.Add(key, 1)
}

// Dec decrements a metric by 1.
func (r *Registry) Dec(key MetricKey) {
	r.Add(key, -1)
}

// Add increments a metric by delta. A nil registry is a no-op.
func (r *Registry) Add(key MetricKey, delta int64) {
	if r == nil || delta == 0 {
		return
	}

	r.mu.RLock()
	ptr, ok := r.counters[key]
	r.mu.RUnlock()

	if ok {
		atomic.AddInt64(ptr, delta)
		return
	}

	// Slow path: metric not yet initialized
	r.mu.Lock()
	defer r.mu.Unlock()

	if ptr, ok = r.counters[key]; ok {
		atomic.AddInt64(ptr, delta)
		return
	}

	var val int64
	r.counters[key] = &val
	atomic.AddInt64(&val, delta)
}

// Get returns the current value of a single metric.
func (r *Registry) Get(key MetricKey) int64 {
	if r == nil {
		return 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if ptr, ok := r.counters[key]; ok {
		return atomic.LoadInt64(ptr)
	}
	return 0
}
