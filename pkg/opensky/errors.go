package opensky

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// FetchError represents a transport-level failure: the request could not be
// sent, no response arrived, or the provider answered with a non-2xx status.
type FetchError struct {
	URL string

	// StatusCode is 0 when no HTTP response was received
	StatusCode int

	// Body is the (truncated) response body for non-2xx answers
	Body string

	RateLimit RateLimitHeaders

	Err error
}

// RateLimitHeaders contains rate limit information from response headers.
// OpenSky sends these when anonymous credits run out (HTTP 429).
type RateLimitHeaders struct {
	Remaining  int           // X-Rate-Limit-Remaining: credits left, -1 when absent
	RetryAfter time.Duration // X-Rate-Limit-Retry-After-Seconds or Retry-After
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 && e.Err == nil {
		msg := fmt.Sprintf("API returned status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
		if e.RateLimit.RetryAfter > 0 {
			msg += fmt.Sprintf(" (retry after %v)", e.RateLimit.RetryAfter)
		}
		return msg
	}
	return fmt.Sprintf("failed to fetch aircraft data: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError represents a 2xx response whose body is not the expected JSON
// object. Body holds the raw response for diagnostics.
type ParseError struct {
	Body []byte
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse API response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsFetchError checks if an error is (or wraps) a FetchError.
func IsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsParseError checks if an error is (or wraps) a ParseError.
func IsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// parseRetryAfter extracts the Retry-After header value.
// Returns the duration to wait, or 0 if header is not present.
// Supports both delay-seconds (integer) and HTTP-date formats.
func parseRetryAfter(headers http.Header) time.Duration {
	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if retryTime, err := http.ParseTime(retryAfter); err == nil {
		if d := time.Until(retryTime); d > 0 {
			return d
		}
	}

	return 0
}

// extractRateLimitHeaders reads OpenSky's X-Rate-Limit-* headers, falling back
// to the standard Retry-After header.
func extractRateLimitHeaders(headers http.Header) RateLimitHeaders {
	rlh := RateLimitHeaders{Remaining: -1}

	if remaining := headers.Get("X-Rate-Limit-Remaining"); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			rlh.Remaining = val
		}
	}

	if secs := headers.Get("X-Rate-Limit-Retry-After-Seconds"); secs != "" {
		if val, err := strconv.Atoi(secs); err == nil && val > 0 {
			rlh.RetryAfter = time.Duration(val) * time.Second
		}
	}
	if rlh.RetryAfter == 0 {
		rlh.RetryAfter = parseRetryAfter(headers)
	}

	return rlh
}
