package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorType classifies a failure produced by the client.
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeHTTP       ErrorType = "http"
	ErrorTypeGraphQL    ErrorType = "graphql"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeServer     ErrorType = "server"
	ErrorTypeClient     ErrorType = "client"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error sources describe which side of the exchange produced the failure.
const (
	SourceClient  = "client"
	SourceServer  = "server"
	SourceNetwork = "network"
)

// Sentinel errors for client-side gates
var (
	// ErrCircuitOpen is returned when the circuit breaker is in open state
	ErrCircuitOpen = errors.New("apiclient: circuit open")

	// ErrRateLimited is returned when a request is denied due to rate limiting
	ErrRateLimited = errors.New("apiclient: rate limited")

	// ErrIteratorExhausted is returned when Next is called on a finished paginator
	ErrIteratorExhausted = errors.New("apiclient: paginator exhausted")
)

// APIError is the canonical error shape every failure is normalized into
// exactly once before it leaves the client. Retryable is derived during
// normalization and never set independently.
type APIError struct {
	Type      ErrorType
	Message   string
	Status    int
	Code      string
	Field     string
	Details   any
	Retryable bool
	Source    string
	Cause     error
}

// Error implements error interface.
func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Status > 0 {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s (status %d: %v)", e.Type, e.Message, e.Status, e.Cause)
		}
		return fmt.Sprintf("%s: %s (status %d)", e.Type, e.Message, e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *APIError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*APIError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// defaultRetryableStatuses is the status set consulted when a request does
// not override it.
var defaultRetryableStatuses = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Normalize maps any error to its canonical *APIError form. Already
// normalized errors pass through untouched, so normalization happens at most
// once per failure.
func Normalize(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{
			Type:      ErrorTypeTimeout,
			Message:   "request timed out",
			Retryable: true,
			Source:    SourceNetwork,
			Cause:     err,
		}
	}

	if errors.Is(err, context.Canceled) {
		return &APIError{
			Type:      ErrorTypeClient,
			Message:   "request canceled",
			Retryable: false,
			Source:    SourceClient,
			Cause:     err,
		}
	}

	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrRateLimited) {
		return &APIError{
			Type:      ErrorTypeClient,
			Message:   err.Error(),
			Retryable: false,
			Source:    SourceClient,
			Cause:     err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &APIError{
				Type:      ErrorTypeTimeout,
				Message:   "request timed out",
				Retryable: true,
				Source:    SourceNetwork,
				Cause:     err,
			}
		}
		return &APIError{
			Type:      ErrorTypeNetwork,
			Message:   "network request failed",
			Retryable: true,
			Source:    SourceNetwork,
			Cause:     err,
		}
	}

	return &APIError{
		Type:      ErrorTypeUnknown,
		Message:   err.Error(),
		Retryable: false,
		Source:    SourceClient,
		Cause:     err,
	}
}

// normalizeStatus converts a non-2xx response into its canonical error.
// The response body is kept in Details for callers that need it.
func normalizeStatus(resp *Response) *APIError {
	status := resp.StatusCode

	e := &APIError{
		Status:  status,
		Message: fmt.Sprintf("request failed with status %d", status),
		Details: string(resp.Body),
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Type = ErrorTypeAuth
		e.Source = SourceClient
	case status >= 500:
		e.Type = ErrorTypeServer
		e.Source = SourceServer
		e.Retryable = true
	default:
		e.Type = ErrorTypeHTTP
		e.Source = SourceClient
		e.Retryable = status == http.StatusRequestTimeout || status == http.StatusTooManyRequests
	}

	return e
}

// newValidationError reports a locally detected misuse before any network
// call is made.
func newValidationError(message string) *APIError {
	return &APIError{
		Type:      ErrorTypeValidation,
		Message:   message,
		Retryable: false,
		Source:    SourceClient,
	}
}

// IsRetryable reports whether the error, once normalized, is eligible for a
// retry attempt under the given status set. A nil statuses slice falls back
// to the default retryable set.
func IsRetryable(err error, statuses []int) bool {
	if err == nil {
		return false
	}
	apiErr := Normalize(err)
	if apiErr.Retryable {
		return true
	}
	if apiErr.Status == 0 {
		return false
	}
	if statuses == nil {
		statuses = defaultRetryableStatuses
	}
	for _, s := range statuses {
		if apiErr.Status == s {
			return true
		}
	}
	return false
}

// IsTransient determines if an error represents a transient failure that
// might succeed if the whole call is repeated later. Unlike IsRetryable it
// also covers client-side gates such as the circuit breaker and rate
// limiter.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrRateLimited) {
		return true
	}
	return IsRetryable(err, nil)
}
