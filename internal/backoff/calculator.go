package backoff

import (
	"time"
)

// Calculator provides delay calculation using a configurable strategy. It
// centralizes the logic shared by the client retry loop and the paginator.
type Calculator struct {
	strategy Strategy
}

// NewCalculator creates a new backoff calculator with the specified strategy.
func NewCalculator(strategy Strategy) *Calculator {
	return &Calculator{strategy: strategy}
}

// Delay computes the wait before the next attempt.
func (c *Calculator) Delay(attempt int, base time.Duration) time.Duration {
	return c.strategy.Delay(attempt, base)
}

// Strategy returns the strategy backing this calculator.
func (c *Calculator) Strategy() Strategy {
	return c.strategy
}

// ForName returns a calculator for the named strategy. Unrecognized names
// fall back to exponential jitter, the default policy.
func ForName(name string) *Calculator {
	switch name {
	case "immediate":
		return NewCalculator(ImmediateStrategy{})
	case "fixed":
		return NewCalculator(FixedStrategy{})
	case "exponential":
		return NewCalculator(ExponentialJitterStrategy{})
	default:
		return NewCalculator(ExponentialJitterStrategy{})
	}
}
