package retry

import (
	"context"
	"sync"

	"github.com/alitto/pond/v2"
	amperrors "github.com/amp-labs/amp-toolkit/errors"
	"github.com/amp-labs/amp-toolkit/try"
	"github.com/amp-labs/amp-toolkit/utils"
	"go.uber.org/atomic"
)

// All retries every operation concurrently, each in its own session with the
// same configuration, and returns their values in input order.
//
// It fails with the final error of the first session to give up. The other
// sessions are then cancelled through their context and stop at their next
// backoff wait; All does not wait for them.
//
// Example:
//
//	users, err := retry.All(ctx, []retry.Operation[*User]{fetchAlice, fetchBob},
//	    retry.WithMaxRetries(2))
func All[T any](ctx context.Context, ops []Operation[T], opts ...Option) ([]T, error) {
	if len(ops) == 0 {
		return []T{}, nil
	}

	cfg := Resolve(opts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := pond.NewPool(poolSize(cfg, len(ops)))
	defer pool.Stop()

	var (
		once     sync.Once
		firstErr = atomic.NewError(nil)
	)

	results := make([]T, len(ops))
	group := pool.NewGroup()

	for i, op := range ops {
		group.SubmitErr(func() error {
			value, err := session(ctx, cfg, op)
			if err != nil {
				once.Do(func() {
					firstErr.Store(err)
					cancel()
				})

				return err
			}

			results[i] = value

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		if first := firstErr.Load(); first != nil {
			return nil, first
		}

		return nil, err
	}

	return results, nil
}

// Race retries every operation concurrently and returns the value of the
// first session to succeed. Sessions that give up are ignored while others
// are still running; the remaining sessions are cancelled once a winner is
// found, and Race returns without waiting for them.
//
// If every session fails, the failures are returned joined in input order.
// With no operations Race returns ErrNoOperations.
//
// Example:
//
//	body, err := retry.Race(ctx, []retry.Operation[[]byte]{fromPrimary, fromMirror})
func Race[T any](ctx context.Context, ops []Operation[T], opts ...Option) (T, error) {
	var zero T

	if len(ops) == 0 {
		return zero, ErrNoOperations
	}

	cfg := Resolve(opts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := pond.NewPool(poolSize(cfg, len(ops)))
	defer pool.Stop()

	// Buffered so losers never block after Race has returned.
	settlements := make(chan settlement[T], len(ops))

	for i, op := range ops {
		pool.Submit(func() {
			value, err := session(ctx, cfg, op)
			settlements <- settlement[T]{index: i, Try: try.Of(value, err)}
		})
	}

	failures := make([]error, len(ops))

	for range ops {
		s := <-settlements
		if s.IsSuccess() {
			return s.Value, nil
		}

		failures[s.index] = s.Error
	}

	var errs amperrors.Collection
	for _, err := range failures {
		errs.Add(err)
	}

	return zero, errs.GetError()
}

// AllSettled retries every operation concurrently and waits for all of them.
// It never fails: each outcome is reported as a try.Try in input order,
// fulfilled with the value or rejected with the session's final error.
//
// Example:
//
//	for i, outcome := range retry.AllSettled(ctx, ops) {
//	    if outcome.IsFailure() {
//	        log.Printf("operation %d failed: %v", i, outcome.Error)
//	    }
//	}
func AllSettled[T any](ctx context.Context, ops []Operation[T], opts ...Option) []try.Try[T] {
	outcomes := make([]try.Try[T], len(ops))
	if len(ops) == 0 {
		return outcomes
	}

	cfg := Resolve(opts...)

	pool := pond.NewPool(poolSize(cfg, len(ops)))
	defer pool.Stop()

	group := pool.NewGroup()

	for i, op := range ops {
		group.Submit(func() {
			outcomes[i] = try.Of[T](session(ctx, cfg, op))
		})
	}

	// Tasks never return errors, so Wait only signals completion.
	_ = group.Wait()

	return outcomes
}

// settlement is a finished Race session and its position in the input.
type settlement[T any] struct {
	index int
	try.Try[T]
}

// session runs one retry session for a combinator. It runs on a pool worker,
// so a panic in the operation becomes the session's error instead of
// crashing the process.
func session[T any](ctx context.Context, cfg Config, op Operation[T]) (value T, err error) {
	if perr := utils.CallSafely(func() { value, err = do(ctx, cfg, op) }); perr != nil {
		var zero T

		return zero, perr
	}

	return value, err
}

// poolSize returns the number of workers for n sessions.
func poolSize(cfg Config, n int) int {
	if cfg.Concurrency <= 0 || cfg.Concurrency > n {
		return n
	}

	return cfg.Concurrency
}
