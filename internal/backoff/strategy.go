package backoff

import (
	"math/rand"
	"time"
)

// Strategy defines the interface for inter-attempt delay algorithms.
type Strategy interface {
	// Delay returns the wait before attempt+1 given the base delay and the
	// zero-based number of the attempt that just failed.
	Delay(attempt int, base time.Duration) time.Duration
}

// ImmediateStrategy retries without waiting.
type ImmediateStrategy struct{}

// Delay implements the Strategy interface.
func (ImmediateStrategy) Delay(int, time.Duration) time.Duration { return 0 }

// FixedStrategy waits exactly the base delay between every attempt.
type FixedStrategy struct{}

// Delay implements the Strategy interface.
func (FixedStrategy) Delay(_ int, base time.Duration) time.Duration {
	if base < 0 {
		return 0
	}
	return base
}

// ExponentialJitterStrategy implements exponential backoff with additive
// uniform jitter: base * 2^attempt plus a random amount in
// [0, jitter * base * 2^attempt]. Jitter is only ever added, so the expected
// delay strictly increases with the attempt number.
type ExponentialJitterStrategy struct {
	// Jitter is the fraction of the computed delay used as the jitter
	// ceiling. Zero means the default of 0.1.
	Jitter float64

	// Max caps the computed delay before jitter. Zero means uncapped.
	Max time.Duration
}

// Delay implements the Strategy interface.
func (s ExponentialJitterStrategy) Delay(attempt int, base time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Prevent overflow by limiting attempt
	if attempt > 30 {
		attempt = 30
	}
	if base < 0 {
		base = 0
	}

	delay := time.Duration(float64(base) * pow(2.0, attempt))
	if delay < 0 {
		delay = s.Max
	}
	if s.Max > 0 && delay > s.Max {
		delay = s.Max
	}

	jitter := s.Jitter
	if jitter == 0 {
		jitter = 0.1
	}
	if jitter < 0 {
		jitter = 0
	}
	if jitter > 1 {
		jitter = 1
	}
	if jitter > 0 && delay > 0 {
		delay += time.Duration(float64(delay) * jitter * rand.Float64())
	}
	return delay
}

// pow calculates base^exponent using integer exponentiation.
func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
