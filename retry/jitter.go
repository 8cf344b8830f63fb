package retry

import (
	"math/rand/v2"
	"time"
)

// Jitter represents a jitter strategy for retry delays. Jitter adds randomness
// to backoff delays to prevent the "thundering herd" problem where many clients
// retry at the same time, overwhelming the server.
//
// The value represents the amount of randomness:
//   - 0.0 or negative: No jitter (deterministic delays, the default)
//   - 0.5: Equal jitter (50% random, 50% deterministic)
//   - 1.0 and above: Full jitter (completely random between 0 and delay)
type Jitter float64

// EqualJitter provides a balanced jitter strategy where the delay is 50% random
// and 50% deterministic.
//
// Formula: delay/2 + random(0, delay/2).
const EqualJitter Jitter = 0.5

// FullJitter provides maximum randomness where the delay is completely random
// between 0 and the calculated delay.
//
// Formula: random(0, delay).
const FullJitter Jitter = 1.0

// WithoutJitter disables jitter entirely, using the exact calculated delay.
//
// Formula: delay (no randomness).
const WithoutJitter Jitter = 0

// jitter applies the jitter strategy to the given delay duration.
// The result always lies in [(1-j)*d, d].
func (j Jitter) jitter(d time.Duration) time.Duration {
	if j <= 0 || d <= 0 {
		return d
	}

	r := rand.Float64() * float64(d) //nolint:gosec // G404: math/rand is sufficient for jitter

	if j < 1 {
		// Formula: jitter * random + (1 - jitter) * delay
		r = float64(j)*r + float64(1-j)*float64(d)
	}

	return time.Duration(r)
}
