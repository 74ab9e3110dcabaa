package ttl

import (
	"context"
	"sync/atomic"
	"time"

	"kvstore/internal/logs"
	"kvstore/internal/metrics"
)

// Store defines the minimal contract required by the reaper.
type Store interface {
	RemoveExpiredSample(n int) int
	RemoveExpired() int
}

// Stats are cumulative counters for a reaper since it was created.
type Stats struct {
	CyclesRun   uint64 `json:"cycles_run"`
	KeysExpired uint64 `json:"keys_expired"`
}

// Reaper periodically evicts expired keys from a bounded sample of the store.
//
// Keys outside the sample survive until a later cycle, a full sweep or a
// lazy check on access.
type Reaper struct {
	store   Store
	config  Config
	logger  *logs.Logger
	metrics *metrics.Registry

	cycles  atomic.Uint64
	expired atomic.Uint64
}

func NewReaper(
	store Store,
	cfg Config,
	logger *logs.Logger,
	reg *metrics.Registry,
) *Reaper {
	return &Reaper{
		store:   store,
		config:  cfg,
		logger:  logger,
		metrics: reg,
	}
}

// Start runs the expiry loop until the context is cancelled.
// It blocks and should typically be run in a separate goroutine.
func (r *Reaper) Start(ctx context.Context) {
	r.logger.Info("expiry reaper started",
		"interval", r.config.Interval,
		"batch_size", r.config.BatchSize,
	)

	interval := r.config.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce()
		case <-ctx.Done():
			r.logger.Debug("expiry reaper stopped", "cycles", r.cycles.Load())
			return
		}
	}
}

// RunOnce performs a single sampling cycle and returns the number of keys removed.
func (r *Reaper) RunOnce() int {
	removed := r.store.RemoveExpiredSample(r.config.BatchSize)

	cycle := r.cycles.Add(1)
	r.metrics.Inc(metrics.TTLCleanupRunsTotal)

	if removed > 0 {
		total := r.expired.Add(uint64(removed))
		r.metrics.Add(metrics.TTLKeysRemovedTotal, int64(removed))
		r.logger.Debug("expiry reaper removed keys",
			"removed", removed,
			"total", total,
			"cycle", cycle,
		)
	}
	return removed
}

// Stats returns the counters accumulated by RunOnce.
func (r *Reaper) Stats() Stats {
	return Stats{
		CyclesRun:   r.cycles.Load(),
		KeysExpired: r.expired.Load(),
	}
}

// CleanupAllExpired sweeps the whole store outside the periodic loop and
// returns the number of keys removed. It holds the store lock for O(n).
func CleanupAllExpired(store Store) int {
	return store.RemoveExpired()
}
