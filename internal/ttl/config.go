package ttl

import (
	"errors"
	"time"
)

const (
	DefaultInterval  = 100 * time.Millisecond
	DefaultBatchSize = 20
)

// Config controls the active expiry cycle.
type Config struct {
	// Interval between cycles.
	Interval time.Duration
	// BatchSize is the maximum number of keys checked per cycle.
	BatchSize int
}

func DefaultConfig() Config {
	return Config{
		Interval:  DefaultInterval,
		BatchSize: DefaultBatchSize,
	}
}

func (c Config) WithInterval(d time.Duration) Config {
	c.Interval = d
	return c
}

func (c Config) WithBatchSize(n int) Config {
	c.BatchSize = n
	return c
}

func (c Config) Validate() error {
	if c.Interval <= 0 {
		return errors.New("ttl: interval must be positive")
	}
	if c.BatchSize <= 0 {
		return errors.New("ttl: batch size must be positive")
	}
	return nil
}
