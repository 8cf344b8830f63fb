// Package retry runs operations that may fail transiently, retrying them with
// exponential backoff. It supports per-attempt timeouts, retry predicates and
// observers, jitter, retry budgets, and combinators that retry several
// operations concurrently.
//
// The package offers one-shot functions (Do, DoValue), reusable runners with
// preset options (NewRunner, NewValueRunner), function wrappers (Wrap and
// friends) and combinators (All, Race, AllSettled).
//
// Basic usage:
//
//	err := retry.Do(ctx, func(ctx context.Context, attempt uint) error {
//	    return makeAPICall(ctx)
//	})
//
// With custom options:
//
//	err := retry.Do(ctx, operation,
//	    retry.WithMaxRetries(5),
//	    retry.WithInitialDelay(100*time.Millisecond),
//	    retry.WithMaxDelay(5*time.Second),
//	    retry.WithJitter(retry.FullJitter),
//	)
//
// For operations that return values:
//
//	result, err := retry.DoValue(ctx, func(ctx context.Context, attempt uint) (string, error) {
//	    return fetchData(ctx)
//	})
//
// The context is only consulted between attempts and during timed attempts.
// Given a context that is never cancelled, a call runs until it succeeds,
// exhausts its retries, or hits a failure that may not be retried.
package retry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amp-labs/amp-toolkit/logger"
	"github.com/amp-labs/amp-toolkit/utils"
	"go.uber.org/atomic"
)

// Operation is a unit of work the engine may call several times. It receives
// the zero-based attempt index and must tolerate being re-run.
type Operation[T any] func(ctx context.Context, attempt uint) (T, error)

// Do runs f with retry logic. It returns nil on the first successful attempt,
// or the most recent failure once no further attempt is allowed.
//
// Example:
//
//	err := retry.Do(ctx, func(ctx context.Context, _ uint) error {
//	    return makeAPICall(ctx)
//	}, retry.WithMaxRetries(5))
func Do(ctx context.Context, f func(ctx context.Context, attempt uint) error, opts ...Option) error {
	_, err := do(ctx, Resolve(opts...), unit(f))

	return err
}

// DoValue runs op with retry logic and returns the value of the first
// successful attempt. If all retries are exhausted, it returns the zero value
// of T and the last error encountered.
//
// Example:
//
//	user, err := retry.DoValue(ctx, func(ctx context.Context, _ uint) (*User, error) {
//	    return client.GetUser(ctx, id)
//	}, retry.WithMaxRetries(5))
func DoValue[T any](ctx context.Context, op Operation[T], opts ...Option) (T, error) {
	return do(ctx, Resolve(opts...), op)
}

// unit adapts an error-only function to an Operation.
func unit(f func(ctx context.Context, attempt uint) error) Operation[struct{}] {
	return func(ctx context.Context, attempt uint) (struct{}, error) {
		return struct{}{}, f(ctx, attempt)
	}
}

// do is the core retry loop. For each attempt it:
//   - stops early if the context is already done
//   - runs the operation, under a deadline when a Timeout is configured
//   - returns on success, or on a failure that may not be retried
//   - asks the budget for permission, notifies OnRetry, and waits out the backoff
//
// The returned error is one of:
//   - the operation's most recent failure, as returned
//   - the original error behind an Abort
//   - ctx.Err() if the context is done between attempts or during the wait
//   - ErrExhausted joined with the last failure when a budget refuses a retry
func do[T any](ctx context.Context, cfg Config, op Operation[T]) (T, error) {
	var zero T

	backoff := cfg.backoff()

	guard := newAttemptGuard()
	defer guard.stop()

	for attempt := uint(0); ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := runAttempt(ctx, cfg, guard, attempt, op)
		if err == nil {
			return value, nil
		}

		if cause := permanentCause(err); cause != nil {
			return zero, cause
		}

		if attempt >= cfg.MaxRetries || !cfg.allowRetry(ctx, err, attempt) {
			return zero, err
		}

		if !cfg.Budget.sendOK(true) {
			return zero, fmt.Errorf("%w: %w", ErrExhausted, err)
		}

		delay := cfg.Jitter.jitter(backoff.Delay(attempt))

		cfg.notifyRetry(ctx, err, attempt, delay)

		if err := utils.SleepCtx(ctx, delay); err != nil {
			return zero, err
		}
	}
}

// attemptGuard keeps the attempts of one session strictly sequential. An
// attempt holds mu while its operation runs, including a timed-out attempt
// whose operation ignored its context. running turns false once the session
// has returned, so an attempt goroutine that was never scheduled skips its
// operation.
type attemptGuard struct {
	mu      sync.Mutex
	running *atomic.Bool
}

func newAttemptGuard() *attemptGuard {
	return &attemptGuard{running: atomic.NewBool(true)}
}

func (g *attemptGuard) stop() {
	g.running.Store(false)
}

// wait blocks until no attempt of the session is running.
func (g *attemptGuard) wait() {
	g.mu.Lock()
	g.mu.Unlock() //nolint:staticcheck // Empty critical section waits for the holder.
}

// runAttempt runs a single attempt. Without a timeout the operation runs on
// the caller's goroutine. A timed attempt first waits for the previous one,
// which may still be running after its deadline passed.
func runAttempt[T any](ctx context.Context, cfg Config, guard *attemptGuard, attempt uint, op Operation[T]) (T, error) {
	ctx = withAttempt(ctx, attempt)

	if attempt == 0 {
		// Initial calls always count toward the budget.
		cfg.Budget.sendOK(false)
	}

	if cfg.Timeout > 0 {
		guard.wait()

		return callWithTimeout(ctx, cfg, guard, attempt, op)
	}

	guard.mu.Lock()
	defer guard.mu.Unlock()

	return op(ctx, attempt)
}

// allowRetry consults ShouldRetry. A panicking predicate is logged and
// counts as "do not retry", so the original failure reaches the caller.
func (c Config) allowRetry(ctx context.Context, err error, attempt uint) bool {
	if c.ShouldRetry == nil {
		return true
	}

	allowed := false

	if perr := utils.CallSafely(func() { allowed = c.ShouldRetry(err, attempt) }); perr != nil {
		logger.Get(ctx).Error("panic encountered in retry ShouldRetry callback",
			"attempt", attempt, "error", perr)

		return false
	}

	return allowed
}

// notifyRetry calls OnRetry. A panicking observer is logged and otherwise ignored.
func (c Config) notifyRetry(ctx context.Context, err error, attempt uint, delay time.Duration) {
	if c.OnRetry == nil {
		return
	}

	if perr := utils.CallSafely(func() { c.OnRetry(err, attempt, delay) }); perr != nil {
		logger.Get(ctx).Error("panic encountered in retry OnRetry callback",
			"attempt", attempt, "error", perr)
	}
}
