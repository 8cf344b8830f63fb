package retry

import (
	"math"
	"time"
)

// Backoff is an interface for calculating the delay between retry attempts.
// Different backoff strategies can be implemented to control retry behavior.
type Backoff interface {
	// Delay calculates the duration to wait after the given failed attempt.
	// The attempt parameter is zero-indexed (0 is the wait before the first retry).
	Delay(attempt uint) time.Duration
}

// ExpBackoff implements exponential backoff with configurable parameters.
// The delay after attempt 0 is Base, uncapped. Each later delay is the
// previous one times Factor, capped at Max.
//
// Example:
//
//	backoff := retry.ExpBackoff{
//	    Base:   100 * time.Millisecond,  // Start with 100ms
//	    Max:    10 * time.Second,         // Cap at 10s
//	    Factor: 2.0,                      // Double each time
//	}
//	// Delays: 100ms, 200ms, 400ms, 800ms, 1.6s, 3.2s, 6.4s, 10s, 10s, ...
//
// A Factor below 1 produces a shrinking delay and is allowed.
type ExpBackoff struct {
	// Base is the initial delay duration.
	Base time.Duration
	// Max is the maximum delay duration (cap).
	Max time.Duration
	// Factor is the multiplier applied to each successive delay (e.g., 2.0 for doubling).
	Factor float64
}

// Delay calculates the exponential backoff delay for the given attempt.
// Products are computed in floating point; overflow and NaN clamp to Max.
func (b ExpBackoff) Delay(attempt uint) time.Duration {
	limit := float64(b.Max)
	d := float64(b.Base)

	for range attempt {
		next := d * b.Factor
		if math.IsNaN(next) || next >= limit {
			next = limit
		}

		// Every later step would give the same value.
		if next == d {
			break
		}

		d = next
	}

	if d <= 0 {
		return 0
	}

	return time.Duration(d)
}

// ConstantBackoff waits the same duration after every attempt.
type ConstantBackoff time.Duration

// Delay returns the constant duration regardless of attempt.
func (c ConstantBackoff) Delay(uint) time.Duration {
	return time.Duration(c)
}
