package retry

import (
	"sync"
	"time"
)

const (
	defaultBucketCount  = 60 // one minute window
	defaultBucketLength = time.Second
)

// Budget implements a retry budget to prevent cascading failures and retry storms.
// It tracks the rate of initial calls and retried calls over a sliding one-minute
// window, and refuses retries when retries make up too large a share of traffic.
//
// The budget uses two parameters:
//   - Rate: The minimum initial request rate (requests/second) before budget enforcement kicks in
//   - Ratio: The maximum allowed ratio of retries to initial requests (e.g., 0.1 = 10% retries)
//
// A Budget is the only state that may be shared between retry sessions; it
// is safe for concurrent use. The zero value is ready to use and, with Rate
// and Ratio both zero, refuses every retry once any call has been made.
//
// Example:
//
//	budget := &retry.Budget{
//	    Rate:  10.0,  // Only enforce budget when > 10 requests/sec
//	    Ratio: 0.1,   // Allow up to 10% of requests to be retries
//	}
type Budget struct {
	// Rate is the minimum initial request rate (req/sec) before budget enforcement begins.
	Rate float64
	// Ratio is the maximum allowed ratio of retried requests to initial requests.
	Ratio float64

	mu      sync.Mutex
	now     func() time.Time
	initial *movingRate
	retried *movingRate
}

// sendOK records an attempt and reports whether it may proceed. Initial
// attempts are always allowed. A nil Budget allows everything.
func (b *Budget) sendOK(isRetry bool) bool {
	if b == nil {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initial == nil {
		b.initial = newMovingRate()
		b.retried = newMovingRate()
	}

	now := time.Now()
	if b.now != nil {
		now = b.now()
	}

	if !isRetry {
		b.initial.add(now, 1)

		return true
	}

	initialRate := b.initial.rate(now)
	if initialRate > b.Rate && b.retried.rate(now)/initialRate >= b.Ratio {
		return false
	}

	b.retried.add(now, 1)

	return true
}

// movingRate counts events in a ring of fixed-length time buckets and
// reports the average rate per second over the covered window.
type movingRate struct {
	bucketLength time.Duration
	counts       []int

	newest   int       // index of the bucket holding the current time
	newestAt time.Time // start of the newest bucket
	started  time.Time // first observation, zero until then
}

func newMovingRate() *movingRate {
	return &movingRate{
		bucketLength: defaultBucketLength,
		counts:       make([]int, defaultBucketCount),
	}
}

// advance moves the ring forward to now, zeroing buckets that fell out of
// the window. Times before the newest bucket are treated as the newest bucket.
func (mr *movingRate) advance(now time.Time) {
	start := now.Truncate(mr.bucketLength)

	if mr.started.IsZero() {
		mr.started = now
		mr.newestAt = start

		return
	}

	if !start.After(mr.newestAt) {
		return
	}

	steps := min(int(start.Sub(mr.newestAt)/mr.bucketLength), len(mr.counts))
	for range steps {
		mr.newest = (mr.newest + 1) % len(mr.counts)
		mr.counts[mr.newest] = 0
	}

	mr.newestAt = start
}

func (mr *movingRate) add(now time.Time, n int) {
	mr.advance(now)
	mr.counts[mr.newest] += n
}

// rate returns events per second. The window is the time since the first
// observation, at least one bucket and at most the whole ring.
func (mr *movingRate) rate(now time.Time) float64 {
	mr.advance(now)

	window := now.Sub(mr.started)
	window = max(window, mr.bucketLength)
	window = min(window, time.Duration(len(mr.counts))*mr.bucketLength)

	total := 0
	for _, c := range mr.counts {
		total += c
	}

	return float64(total) / window.Seconds()
}
