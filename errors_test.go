package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

type fakeNetError struct {
	timeout bool
}

func (e *fakeNetError) Error() string   { return "fake net error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return true }

var _ net.Error = (*fakeNetError)(nil)

func TestNormalizePassthrough(t *testing.T) {
	original := &APIError{Type: ErrorTypeGraphQL, Message: "boom"}

	normalized := Normalize(original)
	if normalized != original {
		t.Error("Expected an already normalized error to pass through unchanged")
	}

	wrapped := fmt.Errorf("outer: %w", original)
	if Normalize(wrapped) != original {
		t.Error("Expected a wrapped APIError to be unwrapped, not re-normalized")
	}
}

func TestNormalizeNil(t *testing.T) {
	if Normalize(nil) != nil {
		t.Error("Expected nil for nil input")
	}
}

func TestNormalizeDeadlineExceeded(t *testing.T) {
	e := Normalize(context.DeadlineExceeded)
	if e.Type != ErrorTypeTimeout {
		t.Errorf("Expected timeout type, got %s", e.Type)
	}
	if !e.Retryable {
		t.Error("Expected timeouts to be retryable")
	}
	if e.Source != SourceNetwork {
		t.Errorf("Expected network source, got %s", e.Source)
	}
}

func TestNormalizeCanceled(t *testing.T) {
	e := Normalize(context.Canceled)
	if e.Type != ErrorTypeClient {
		t.Errorf("Expected client type, got %s", e.Type)
	}
	if e.Retryable {
		t.Error("Expected cancellation to not be retryable")
	}
}

func TestNormalizeNetError(t *testing.T) {
	e := Normalize(&fakeNetError{timeout: false})
	if e.Type != ErrorTypeNetwork || !e.Retryable {
		t.Errorf("Expected retryable network error, got %s retryable=%v", e.Type, e.Retryable)
	}

	e = Normalize(&fakeNetError{timeout: true})
	if e.Type != ErrorTypeTimeout || !e.Retryable {
		t.Errorf("Expected retryable timeout error, got %s retryable=%v", e.Type, e.Retryable)
	}
}

func TestNormalizeUnknown(t *testing.T) {
	cause := errors.New("exploded")
	e := Normalize(cause)
	if e.Type != ErrorTypeUnknown {
		t.Errorf("Expected unknown type, got %s", e.Type)
	}
	if e.Retryable {
		t.Error("Expected unknown errors to not be retryable")
	}
	if !errors.Is(e, cause) {
		t.Error("Expected the cause to remain reachable via errors.Is")
	}
}

func TestNormalizeStatusTaxonomy(t *testing.T) {
	tests := []struct {
		status    int
		wantType  ErrorType
		retryable bool
		source    string
	}{
		{401, ErrorTypeAuth, false, SourceClient},
		{403, ErrorTypeAuth, false, SourceClient},
		{404, ErrorTypeHTTP, false, SourceClient},
		{408, ErrorTypeHTTP, true, SourceClient},
		{422, ErrorTypeHTTP, false, SourceClient},
		{429, ErrorTypeHTTP, true, SourceClient},
		{500, ErrorTypeServer, true, SourceServer},
		{502, ErrorTypeServer, true, SourceServer},
		{503, ErrorTypeServer, true, SourceServer},
	}

	for _, tt := range tests {
		e := normalizeStatus(&Response{StatusCode: tt.status, Body: []byte("details")})
		if e.Type != tt.wantType {
			t.Errorf("status %d: expected type %s, got %s", tt.status, tt.wantType, e.Type)
		}
		if e.Retryable != tt.retryable {
			t.Errorf("status %d: expected retryable=%v, got %v", tt.status, tt.retryable, e.Retryable)
		}
		if e.Source != tt.source {
			t.Errorf("status %d: expected source %s, got %s", tt.status, tt.source, e.Source)
		}
		if e.Status != tt.status {
			t.Errorf("status %d: status not carried, got %d", tt.status, e.Status)
		}
	}
}

func TestIsRetryableDefaultStatuses(t *testing.T) {
	for _, status := range []int{408, 429, 500, 502, 503, 504} {
		err := &APIError{Type: ErrorTypeHTTP, Status: status}
		if !IsRetryable(err, nil) {
			t.Errorf("Expected status %d to be retryable by default", status)
		}
	}

	for _, status := range []int{400, 401, 404, 422} {
		err := &APIError{Type: ErrorTypeHTTP, Status: status}
		if IsRetryable(err, nil) {
			t.Errorf("Expected status %d to not be retryable by default", status)
		}
	}
}

func TestAPIErrorIs(t *testing.T) {
	e := &APIError{Type: ErrorTypeTimeout, Message: "slow"}

	if !errors.Is(e, &APIError{Type: ErrorTypeTimeout}) {
		t.Error("Expected errors with equal types to match")
	}
	if errors.Is(e, &APIError{Type: ErrorTypeNetwork}) {
		t.Error("Expected errors with different types to not match")
	}
}

func TestAPIErrorMessage(t *testing.T) {
	e := &APIError{Type: ErrorTypeServer, Message: "request failed", Status: 503}
	got := e.Error()
	if got != "server: request failed (status 503)" {
		t.Errorf("Unexpected message %q", got)
	}

	cause := errors.New("connection refused")
	e = &APIError{Type: ErrorTypeNetwork, Message: "network request failed", Cause: cause}
	got = e.Error()
	if got != "network: network request failed (connection refused)" {
		t.Errorf("Unexpected message %q", got)
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(ErrCircuitOpen) {
		t.Error("Expected circuit open to be transient")
	}
	if !IsTransient(ErrRateLimited) {
		t.Error("Expected rate limited to be transient")
	}
	if !IsTransient(&APIError{Type: ErrorTypeServer, Status: 500, Retryable: true}) {
		t.Error("Expected server errors to be transient")
	}
	if IsTransient(&APIError{Type: ErrorTypeValidation}) {
		t.Error("Expected validation errors to not be transient")
	}
	if IsTransient(nil) {
		t.Error("Expected nil to not be transient")
	}
}
