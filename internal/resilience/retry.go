// Package resilience retries calls rejected by an upstream rate limiter.
package resilience

import (
	"context"
	"time"
)

// DefaultBackoff is the wait unit when a policy leaves it unset.
const DefaultBackoff = 20 * time.Second

// Policy decides whether a failed call is retried and how long to wait first.
type Policy struct {
	// MaxRetries counts retries after the first attempt.
	MaxRetries int

	// Backoff is the wait unit used when the error carries no Retry-After
	// hint: retry n waits n * Backoff.
	Backoff time.Duration

	// Retryable reports whether err may be retried. Nil means IsRateLimited.
	Retryable func(err error) bool

	// OnRetry is called before each wait with the 1-based retry number.
	OnRetry func(retry int, wait time.Duration, err error)
}

// RateLimitPolicy retries rate-limited calls up to maxRetries times, waiting
// for the server's hint or an escalating multiple of backoff.
func RateLimitPolicy(maxRetries int, backoff time.Duration) Policy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return Policy{MaxRetries: maxRetries, Backoff: backoff}
}

// Wait returns the delay before retry number retry (1-based) after err.
func (p Policy) Wait(retry int, err error) time.Duration {
	if hint := RetryAfter(err); hint > 0 {
		return hint
	}
	unit := p.Backoff
	if unit <= 0 {
		unit = DefaultBackoff
	}
	return unit * time.Duration(max(retry, 1))
}

func (p Policy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsRateLimited(err)
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// policy runs out of retries. A cancelled context stops retrying and returns
// the last error from fn.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for retry := 0; ; retry++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || retry >= p.MaxRetries || !p.retryable(err) {
			return zero, err
		}

		wait := p.Wait(retry+1, err)
		if p.OnRetry != nil {
			p.OnRetry(retry+1, wait, err)
		}
		if Sleep(ctx, wait) != nil {
			return zero, err
		}
	}
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
