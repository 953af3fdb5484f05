package apiclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/glaurentiu/universal-api-client/internal/backoff"
)

// Default retry policy applied when neither the client nor the request
// overrides it.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 100 * time.Millisecond
)

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: DefaultMaxRetries,
		Delay:      DefaultRetryDelay,
		Strategy:   RetryExponential,
	}
}

// shouldRetry reports whether another attempt may run after a failure on the
// given zero-based attempt number. The attempt cap makes MaxRetries+1 total
// executions the hard ceiling.
func shouldRetry(rc *RetryConfig, err error, attempt int) bool {
	if attempt >= rc.MaxRetries {
		return false
	}
	return IsRetryable(err, rc.Statuses)
}

// nextDelay computes the wait before attempt+1. A Retry-After header on a
// 429 or 503 response takes precedence over the configured policy.
func nextDelay(rc *RetryConfig, resp *Response, attempt int) time.Duration {
	if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
		if d := parseRetryAfter(resp.Header.Get("Retry-After")); d > 0 {
			return d
		}
	}
	return backoff.ForName(string(rc.Strategy)).Delay(attempt, rc.Delay)
}

// parseRetryAfter parses the Retry-After header value. It supports both
// delay-seconds and HTTP-date formats; values over an hour are capped.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if seconds > 0 {
			delay := time.Duration(seconds) * time.Second
			if delay > time.Hour {
				delay = time.Hour
			}
			return delay
		}
		return 0
	}

	if t, err := http.ParseTime(value); err == nil {
		delay := time.Until(t)
		if delay > 0 && delay <= time.Hour {
			return delay
		}
	}

	return 0
}
