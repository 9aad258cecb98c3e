// Package retry wraps external-resource calls in a bounded, fixed-delay
// retry policy. The archive publishes one file per station per day; a
// predictable fixed delay is preferred over adaptive backoff at that cadence.
package retry

import (
	"context"
	"time"

	backoff "github.com/avast/retry-go/v4"
)

// Policy is a reusable retry policy: bounded attempts, fixed inter-attempt
// delay, and an optional predicate limiting which errors are retryable.
type Policy struct {
	Attempts  uint
	Delay     time.Duration
	Retryable func(error) bool

	// OnRetry is invoked before each re-attempt, for logging and counters.
	OnRetry func(attempt uint, err error)
}

// Fixed returns the default policy used for archive access: n attempts with
// a fixed delay in between, every error retryable.
func Fixed(attempts uint, delay time.Duration) Policy {
	return Policy{Attempts: attempts, Delay: delay}
}

// Do runs fn under the policy. The last error is returned once attempts are
// exhausted; context cancellation stops further attempts.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	opts := []backoff.Option{
		backoff.Attempts(p.Attempts),
		backoff.Delay(p.Delay),
		backoff.DelayType(backoff.FixedDelay),
		backoff.Context(ctx),
		backoff.LastErrorOnly(true),
	}
	if p.Retryable != nil {
		opts = append(opts, backoff.RetryIf(p.Retryable))
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.OnRetry(func(attempt uint, err error) {
			p.OnRetry(attempt, err)
		}))
	}
	return backoff.Do(fn, opts...)
}
