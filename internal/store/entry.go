package store

import "time"

// Entry represents a single value stored in the store.
//
// Zero value of ExpiresAt means "no expiration". Entries are replaced
// wholesale on every write; nothing mutates an Entry in place.
type Entry struct {
	Value     string
	ExpiresAt time.Time
}

// NewEntry returns an entry that never expires.
func NewEntry(value string) Entry {
	return Entry{Value: value}
}

// NewEntryWithExpiry returns an entry that expires at the given instant.
// A zero instant means no expiry.
func NewEntryWithExpiry(value string, expiresAt time.Time) Entry {
	return Entry{Value: value, ExpiresAt: expiresAt}
}

// HasExpiry reports whether the entry carries an expiry instant.
func (e Entry) HasExpiry() bool {
	return !e.ExpiresAt.IsZero()
}

// IsExpired checks whether the entry is expired at the given time.
// An entry is expired only once now is strictly past ExpiresAt.
func (e Entry) IsExpired(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return now.After(e.ExpiresAt)
}
