package apiclient

import (
	"testing"
	"time"
)

func TestCircuitBreakerStartsClosed(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	if cb.State() != StateClosed {
		t.Errorf("Expected a new breaker to be closed, got %v", cb.State())
	}
	if !cb.Allow() {
		t.Error("Expected a closed breaker to allow requests")
	}
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, RecoveryTimeout: time.Hour})

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != StateClosed {
		t.Error("Expected the breaker to stay closed below the threshold")
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("Expected the breaker to open at the threshold, got %v", cb.State())
	}
	if cb.Allow() {
		t.Error("Expected an open breaker to reject requests")
	}
}

func TestCircuitBreakerSuccessResetsFailureStreak(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, RecoveryTimeout: time.Hour})

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	if cb.State() != StateClosed {
		t.Errorf("Expected a success to reset the streak, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
		SuccessThreshold: 2,
	})

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("Expected an open breaker, got %v", cb.State())
	}

	time.Sleep(20 * time.Millisecond)
	if !cb.Allow() {
		t.Fatal("Expected a probe to pass after the recovery timeout")
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("Expected half-open after the probe, got %v", cb.State())
	}

	cb.RecordSuccess()
	if cb.State() != StateHalfOpen {
		t.Error("Expected the breaker to stay half-open below the success threshold")
	}
	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("Expected the breaker to close after enough successes, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
	})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	if !cb.Allow() {
		t.Fatal("Expected a probe to pass")
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("Expected a failed probe to reopen the breaker, got %v", cb.State())
	}
	if cb.Allow() {
		t.Error("Expected the reopened breaker to reject requests")
	}
}

func TestCircuitBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	for i := 0; i < 4; i++ {
		cb.RecordFailure()
	}
	if cb.State() != StateClosed {
		t.Error("Expected the default threshold of 5 failures")
	}
	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Error("Expected the breaker to open at the default threshold")
	}
}
