package store

import (
	"sync"
	"time"

	"kvstore/internal/metrics"
)

// Store is a concurrency-safe in-memory key-value map with TTL semantics.
//
// All access goes through one exclusive lock. Every command runs its whole
// read-modify-write sequence inside a single Do call, so commands (and the
// background reaper) are totally ordered by lock acquisition.
type Store struct {
	mu      sync.Mutex
	data    map[string]Entry
	metrics *metrics.Registry
}

// NewStore initializes and returns a new Store. metricsRegistry may be nil.
func NewStore(metricsRegistry *metrics.Registry) *Store {
	return &Store{
		data:    make(map[string]Entry),
		metrics: metricsRegistry,
	}
}

// Tx is the locked view of a Store handed to Do callbacks.
// It must not be retained or used after the callback returns.
type Tx struct {
	s *Store
}

// Do runs fn while holding the store lock.
// fn must not block or call back into the Store.
func (s *Store) Do(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&Tx{s: s})
}

// Get returns the stored entry unchanged. It does not check expiry.
func (tx *Tx) Get(key string) (Entry, bool) {
	e, ok := tx.s.data[key]
	return e, ok
}

// Insert upserts key unconditionally.
func (tx *Tx) Insert(key string, entry Entry) {
	if _, exists := tx.s.data[key]; !exists {
		tx.s.metrics.Inc(metrics.KeysTotal)
	}
	tx.s.data[key] = entry
}

// Remove deletes key and returns the prior entry, if any.
func (tx *Tx) Remove(key string) (Entry, bool) {
	e, ok := tx.s.data[key]
	if !ok {
		return Entry{}, false
	}
	delete(tx.s.data, key)
	tx.s.metrics.Dec(metrics.KeysTotal)
	return e, true
}

// Keys returns a snapshot of the current key set, in map iteration order.
func (tx *Tx) Keys() []string {
	out := make([]string, 0, len(tx.s.data))
	for k := range tx.s.data {
		out = append(out, k)
	}
	return out
}

// Retain removes every entry for which keep returns false and
// reports how many were removed.
func (tx *Tx) Retain(keep func(key string, e Entry) bool) int {
	removed := 0
	for k, v := range tx.s.data {
		if !keep(k, v) {
			delete(tx.s.data, k)
			removed++
		}
	}
	tx.s.metrics.Add(metrics.KeysTotal, -int64(removed))
	return removed
}

// Len returns the number of stored entries, expired or not.
func (tx *Tx) Len() int {
	return len(tx.s.data)
}

// Len returns the number of stored entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// RemoveExpired removes all expired keys in one pass.
// It holds the lock for O(n).
func (s *Store) RemoveExpired() int {
	now := time.Now()
	removed := 0

	s.Do(func(tx *Tx) {
		removed = tx.Retain(func(_ string, e Entry) bool {
			return !e.IsExpired(now)
		})
	})

	s.metrics.Add(metrics.ActiveExpiredTotal, int64(removed))
	return removed
}

// RemoveExpiredSample checks at most n keys, taken in map iteration order,
// and removes the expired ones among them.
//
// Go randomizes the starting point of every map range, so successive calls
// look at different windows of the key space.
func (s *Store) RemoveExpiredSample(n int) int {
	if n <= 0 {
		return 0
	}

	now := time.Now()
	removed := 0

	s.Do(func(tx *Tx) {
		checked := 0
		for k, v := range tx.s.data {
			if checked == n {
				break
			}
			checked++
			if v.IsExpired(now) {
				tx.Remove(k)
				removed++
			}
		}
	})

	s.metrics.Add(metrics.ActiveExpiredTotal, int64(removed))
	return removed
}

// List returns a snapshot of all non-expired entries.
// Used by admin APIs.
func (s *Store) List() map[string]Entry {
	now := time.Now()
	result := make(map[string]Entry)

	s.Do(func(tx *Tx) {
		for k, v := range tx.s.data {
			if !v.IsExpired(now) {
				result[k] = v
			}
		}
	})
	return result
}
