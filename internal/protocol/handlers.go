package protocol

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"kvstore/internal/metrics"
	"kvstore/internal/store"
)

// maxSeconds keeps now+seconds representable as a time.Duration.
const maxSeconds = math.MaxInt64 / int64(time.Second)

// parseSeconds reads a non-negative whole number of seconds. One leading '+'
// is allowed.
func parseSeconds(s string) (time.Duration, bool) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, 64)
	if err != nil || n > uint64(maxSeconds) {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

// liveEntry returns the entry for key if present and not expired.
// An expired entry is removed on detection.
func (p *Processor) liveEntry(tx *store.Tx, key string, now time.Time) (store.Entry, bool) {
	e, ok := tx.Get(key)
	if !ok {
		return store.Entry{}, false
	}
	if e.IsExpired(now) {
		tx.Remove(key)
		p.metrics.Inc(metrics.LazyExpiredTotal)
		return store.Entry{}, false
	}
	return e, true
}

// GET key
func (p *Processor) get(args []string) (string, error) {
	if len(args) < 1 {
		return "", errGetArgs
	}
	key := args[0]

	var (
		entry store.Entry
		found bool
	)
	p.store.Do(func(tx *store.Tx) {
		entry, found = p.liveEntry(tx, key, time.Now())
	})

	if !found {
		p.metrics.Inc(metrics.GetMissesTotal)
		return replyNil, nil
	}
	p.metrics.Inc(metrics.GetHitsTotal)
	return replyValue(entry.Value), nil
}

// SET key value... [EX seconds]
//
// The value is every token between the key and the first EX found from the
// third argument onward, rejoined with single spaces.
func (p *Processor) set(args []string) (string, error) {
	if len(args) < 2 {
		return "", errSetArgs
	}
	key := args[0]

	valueEnd := len(args)
	var ttl time.Duration
	hasTTL := false

	for i := 2; i < len(args); i++ {
		if !strings.EqualFold(args[i], "EX") {
			continue
		}
		if i+1 >= len(args) {
			return "", errEXMissing
		}
		d, ok := parseSeconds(args[i+1])
		if !ok {
			return "", errEXInvalid
		}
		ttl, hasTTL, valueEnd = d, true, i
		break
	}

	value := strings.Join(args[1:valueEnd], " ")

	p.store.Do(func(tx *store.Tx) {
		entry := store.NewEntry(value)
		if hasTTL {
			entry.ExpiresAt = time.Now().Add(ttl)
		}
		tx.Insert(key, entry)
	})
	return replyOK, nil
}

// EXPIRE key seconds
func (p *Processor) expire(args []string) (string, error) {
	if len(args) < 2 {
		return "", errExpireArgs
	}
	key := args[0]
	ttl, ok := parseSeconds(args[1])
	if !ok {
		return "", errInvalidSeconds
	}

	var updated bool
	p.store.Do(func(tx *store.Tx) {
		now := time.Now()
		entry, found := p.liveEntry(tx, key, now)
		if !found {
			return
		}
		tx.Insert(key, store.NewEntryWithExpiry(entry.Value, now.Add(ttl)))
		updated = true
	})

	if updated {
		return replyInteger(1), nil
	}
	return replyInteger(0), nil
}

// TTL key
func (p *Processor) ttl(args []string) (string, error) {
	if len(args) < 1 {
		return "", errTTLArgs
	}
	key := args[0]

	var remaining int64
	p.store.Do(func(tx *store.Tx) {
		now := time.Now()
		entry, found := p.liveEntry(tx, key, now)
		switch {
		case !found:
			remaining = -2
		case !entry.HasExpiry():
			remaining = -1
		case !now.Before(entry.ExpiresAt):
			// expiry instant reached exactly
			tx.Remove(key)
			p.metrics.Inc(metrics.LazyExpiredTotal)
			remaining = -2
		default:
			remaining = int64(entry.ExpiresAt.Sub(now) / time.Second)
		}
	})
	return replyInteger(remaining), nil
}

// INCR key
func (p *Processor) incr(args []string) (string, error) {
	if len(args) < 1 {
		return "", errIncrArgs
	}
	key := args[0]

	var (
		next int64
		err  error
	)
	p.store.Do(func(tx *store.Tx) {
		entry, found := p.liveEntry(tx, key, time.Now())
		if !found {
			next = 1
			tx.Insert(key, store.NewEntry("1"))
			return
		}

		n, perr := strconv.ParseInt(entry.Value, 10, 64)
		if perr != nil {
			err = errNotInteger
			return
		}
		if n == math.MaxInt64 {
			err = errOverflow
			return
		}

		next = n + 1
		tx.Insert(key, store.NewEntryWithExpiry(strconv.FormatInt(next, 10), entry.ExpiresAt))
	})

	if err != nil {
		return "", err
	}
	return replyInteger(next), nil
}

// DEL key
func (p *Processor) del(args []string) (string, error) {
	if len(args) < 1 {
		return "", errDelArgs
	}
	key := args[0]

	var removed bool
	p.store.Do(func(tx *store.Tx) {
		_, removed = tx.Remove(key)
	})

	if removed {
		return replyInteger(1), nil
	}
	return replyInteger(0), nil
}

// KEYS sweeps every expired entry, then lists the remaining keys sorted.
func (p *Processor) keys() (string, error) {
	var keys []string
	p.store.Do(func(tx *store.Tx) {
		now := time.Now()
		removed := tx.Retain(func(_ string, e store.Entry) bool {
			return !e.IsExpired(now)
		})
		p.metrics.Add(metrics.LazyExpiredTotal, int64(removed))
		keys = tx.Keys()
	})

	sort.Strings(keys)
	return replyList(keys), nil
}
