package apiclient

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRateLimiterConsumesTokens(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("Expected request %d to pass", i+1)
		}
	}
	if rl.Allow() {
		t.Error("Expected the bucket to be empty")
	}
	if rl.Tokens() != 0 {
		t.Errorf("Expected 0 tokens, got %d", rl.Tokens())
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(2, 10*time.Millisecond)

	rl.Allow()
	rl.Allow()
	if rl.Allow() {
		t.Fatal("Expected the bucket to be empty")
	}

	time.Sleep(25 * time.Millisecond)
	if !rl.Allow() {
		t.Error("Expected a token after the refill interval")
	}
}

func TestRateLimiterCapsAtMax(t *testing.T) {
	rl := NewRateLimiter(2, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	rl.refillTokens()
	if rl.Tokens() > 2 {
		t.Errorf("Expected refill to cap at maxTokens, got %d", rl.Tokens())
	}
}

func TestRateLimiterConcurrentConsumption(t *testing.T) {
	const tokens = 50
	rl := NewRateLimiter(tokens, time.Hour)

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow() {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != tokens {
		t.Errorf("Expected exactly %d grants under contention, got %d", tokens, allowed)
	}
}
