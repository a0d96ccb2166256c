// Package retry wraps a single operation with an exponential backoff
// schedule over a caller-defined retryable error subset.
package retry

import (
	"context"
	"time"
)

// Policy controls how many times an operation is reattempted and how
// long the controller sleeps between attempts.
type Policy struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Exponential bool
}

// DefaultPolicy matches the broker client defaults: three retries,
// 500ms base, capped at 10s, doubling per attempt.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:  3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Exponential: true,
	}
}

// Delay returns the sleep before retrying after the given zero-based
// attempt number.
func (p Policy) Delay(attempt int) time.Duration {
	if !p.Exponential {
		return p.BaseDelay
	}
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do invokes fn until it succeeds, returns a non-retryable error, or
// the retry budget is spent. retryable decides which errors are worth
// another attempt; a nil retryable never retries. Cancellation of ctx
// aborts any in-flight backoff sleep and returns ctx.Err().
func Do(ctx context.Context, p Policy, fn func(context.Context) error, retryable func(error) bool) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if retryable == nil || !retryable(err) || attempt >= p.MaxRetries {
			return err
		}
		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
