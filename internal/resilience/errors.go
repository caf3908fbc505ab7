package resilience

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError marks a call rejected with 429. RetryAfter carries the
// server's hint, zero when the response had none.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError wraps err as a rate-limit rejection.
func NewRateLimitError(err error, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Err: err, RetryAfter: retryAfter}
}

// rateLimited is implemented by transport errors that know their status.
type rateLimited interface {
	RateLimited() bool
}

// retryAfterHinter is implemented by errors carrying a server wait hint.
type retryAfterHinter interface {
	RetryAfterHint() time.Duration
}

// IsRateLimited reports whether err, or any error it wraps, is a 429
// rejection.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var rl rateLimited
	return errors.As(err, &rl) && rl.RateLimited()
}

// RetryAfter returns the server-suggested wait carried by err, or 0.
func RetryAfter(err error) time.Duration {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle.RetryAfter
	}
	var h retryAfterHinter
	if errors.As(err, &h) {
		return h.RetryAfterHint()
	}
	return 0
}
