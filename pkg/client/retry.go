package client

import (
	"math"
	"time"
)

// RetryPolicy computes backoff delays as a pure function of the attempt
// index. It carries no mutable state; the attempt counter lives with the
// caller, which keeps the retry state machine testable without sleeping.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries for one logical request,
	// including the first.
	MaxAttempts int

	// BaseDelay is the delay after the first failed attempt.
	BaseDelay time.Duration

	// Multiplier is the exponential backoff factor.
	Multiplier float64
}

// DefaultRetryPolicy returns the default retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		Multiplier:  2.0,
	}
}

// Delay returns the backoff before retrying after failed attempt k
// (0-based): BaseDelay * Multiplier^k. Negative indexes clamp to 0.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt)))
}
