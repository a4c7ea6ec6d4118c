package shared

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRateLimited        = fmt.Errorf("rate limited")
	ErrQuotaExceeded      = fmt.Errorf("quota exceeded")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrCacheMiss          = fmt.Errorf("cache miss")

	// Storage errors
	ErrCorruptLedger = fmt.Errorf("corrupt ledger")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// RateLimitError is returned by remote services on HTTP 429.
//
// RetryAfter is zero when the response carried no usable Retry-After hint.
type RateLimitError struct {
	Status     int
	RetryAfter time.Duration
	Cause      error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (status %d, retry after %s)", e.Status, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited (status %d)", e.Status)
}

func (e *RateLimitError) Unwrap() error { return e.Cause }

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// AsRateLimit reports whether err is (or wraps) a [RateLimitError].
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
