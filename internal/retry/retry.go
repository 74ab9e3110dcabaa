package retry

import (
	"context"
	"time"
)

// Policy controls retry behavior for network operations.
type Policy struct {
	MaxRetries  int           // retries after the first attempt
	BaseBackoff time.Duration // initial backoff
	MaxBackoff  time.Duration // upper bound on any single delay
	JitterFn    func(time.Duration) time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:  3,
		BaseBackoff: 100 * time.Millisecond,
		MaxBackoff:  2 * time.Second,
		JitterFn:    func(d time.Duration) time.Duration { return d / 2 },
	}
}

// Do executes fn with retries, exponential backoff and cancellation support.
//
// fn must return nil on success. Any non-nil error is treated as retryable;
// the last one is returned once retries are exhausted.
func Do(ctx context.Context, policy Policy, fn func() error) error {
	attempt := 0
	backoff := policy.BaseBackoff

	for {
		err := fn()
		if err == nil {
			return nil
		}

		attempt++
		if attempt > policy.MaxRetries {
			return err
		}

		delay := backoff
		if policy.JitterFn != nil {
			delay += policy.JitterFn(backoff)
		}
		if policy.MaxBackoff > 0 && delay > policy.MaxBackoff {
			delay = policy.MaxBackoff
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
			backoff *= 2
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
