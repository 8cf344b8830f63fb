package utils

import (
	"context"
	"time"
)

// SleepCtx blocks for dur or until ctx is done, whichever comes first.
// Non-positive durations return immediately without looking at ctx.
func SleepCtx(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return nil
	}

	timer := time.NewTimer(dur)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
