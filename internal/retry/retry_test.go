package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func noJitter(time.Duration) time.Duration { return 0 }

func TestDefaultPolicy_JitterFn(t *testing.T) {
	p := DefaultPolicy()

	assert.NotNil(t, p.JitterFn)
	assert.Equal(t, 50*time.Millisecond, p.JitterFn(100*time.Millisecond),
		"default jitter should be 50% of backoff")
}

func TestDo(t *testing.T) {
	t.Run("success_on_first_attempt", func(t *testing.T) {
		p := Policy{MaxRetries: 3, BaseBackoff: 10 * time.Millisecond, MaxBackoff: 100 * time.Millisecond, JitterFn: noJitter}

		attempts := 0
		err := Do(context.Background(), p, func() error {
			attempts++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("success_after_retry", func(t *testing.T) {
		p := Policy{MaxRetries: 3, BaseBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond, JitterFn: noJitter}

		attempts := 0
		err := Do(context.Background(), p, func() error {
			attempts++
			if attempts < 2 {
				return errors.New("failed")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("exhaust_retries", func(t *testing.T) {
		p := Policy{MaxRetries: 2, BaseBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, JitterFn: noJitter}

		attempts := 0
		err := Do(context.Background(), p, func() error {
			attempts++
			return errors.New("failed")
		})
		assert.EqualError(t, err, "failed")
		assert.Equal(t, 3, attempts)
	})

	t.Run("context_cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := Policy{MaxRetries: 5, BaseBackoff: 10 * time.Millisecond, MaxBackoff: 100 * time.Millisecond, JitterFn: noJitter}

		err := Do(ctx, p, func() error {
			return errors.New("failed")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("max_backoff_cap", func(t *testing.T) {
		p := Policy{MaxRetries: 3, BaseBackoff: 50 * time.Millisecond, MaxBackoff: 60 * time.Millisecond, JitterFn: noJitter}

		attempts := 0
		start := time.Now()
		_ = Do(context.Background(), p, func() error {
			attempts++
			return errors.New("failed")
		})
		elapsed := time.Since(start)

		assert.Equal(t, 4, attempts)
		assert.Greater(t, elapsed, p.BaseBackoff)
		assert.Less(t, elapsed, time.Second, "delays should be capped at MaxBackoff")
	})
}
