package services

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytsync/internal/shared"
)

// rateLimitTransport turns HTTP 429 responses into a [shared.RateLimitError] carrying the Retry-After hint,
// so callers see throttling as a typed error no matter which client library issued the request.
type rateLimitTransport struct {
	base http.RoundTripper
	now  func() time.Time
}

// NewRateLimitTransport wraps base (http.DefaultTransport when nil).
func NewRateLimitTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &rateLimitTransport{base: base, now: time.Now}
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}

	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	return nil, &shared.RateLimitError{
		Status:     resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), t.now()),
	}
}

// parseRetryAfter accepts both forms of the header: delta seconds and an HTTP date.
// Unparseable or past values yield zero, meaning "no hint".
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return shared.Seconds(secs)
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// newHTTPClient returns a client whose transport reports throttling as [shared.RateLimitError].
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: NewRateLimitTransport(nil),
		Timeout:   timeout,
	}
}
