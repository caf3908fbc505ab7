package anthropic

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
)

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	// RetryAfter is the server-suggested wait, zero when absent.
	RetryAfter time.Duration
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic: HTTP %d: %v", e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// RateLimited reports whether the API rejected the call with 429.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// RetryAfterHint exposes RetryAfter to retry policies.
func (e *APIError) RetryAfterHint() time.Duration {
	return e.RetryAfter
}

// asAPIError converts SDK status errors into *APIError and passes other
// errors through.
func asAPIError(err error) error {
	var sdkErr *sdk.Error
	if !errors.As(err, &sdkErr) {
		return err
	}
	apiErr := &APIError{StatusCode: sdkErr.StatusCode, Err: err}
	if sdkErr.Response != nil {
		apiErr.RetryAfter = ParseRetryAfter(sdkErr.Response.Header, time.Now())
	}
	return apiErr
}

// ParseRetryAfter reads retry-after-ms, then retry-after (seconds or an HTTP
// date relative to now). Returns 0 when no usable hint is present.
func ParseRetryAfter(h http.Header, now time.Time) time.Duration {
	if v := strings.TrimSpace(h.Get("Retry-After-Ms")); v != "" {
		if ms, err := strconv.ParseFloat(v, 64); err == nil && ms > 0 {
			return time.Duration(ms * float64(time.Millisecond))
		}
	}
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
