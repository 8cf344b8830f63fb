package retry

import (
	"context"
	"time"
)

// TimeoutCode is the stable code carried by every TimeoutError.
const TimeoutCode = "TIMEOUT"

// TimeoutError is the failure of an attempt that ran longer than the
// configured Timeout. It is retried like any other failure, and
// errors.Is(err, context.DeadlineExceeded) holds for it.
//
// Example:
//
//	var timeoutErr *retry.TimeoutError
//	if errors.As(err, &timeoutErr) {
//	    log.Printf("gave up after %s", timeoutErr.Timeout)
//	}
type TimeoutError struct {
	Message string
	Timeout time.Duration
}

// NewTimeoutError returns a TimeoutError for an attempt bounded by timeout.
// An empty message becomes DefaultTimeoutMessage.
func NewTimeoutError(message string, timeout time.Duration) *TimeoutError {
	if message == "" {
		message = DefaultTimeoutMessage
	}

	return &TimeoutError{Message: message, Timeout: timeout}
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return DefaultTimeoutMessage
	}

	return e.Message
}

// Code returns TimeoutCode.
func (e *TimeoutError) Code() string { return TimeoutCode }

// Temporary returns true: a timed out attempt may be retried.
func (e *TimeoutError) Temporary() bool { return true }

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// attemptResult carries an attempt's outcome, or the value it panicked with,
// back from the goroutine running a timed attempt.
type attemptResult[T any] struct {
	value    T
	err      error
	panicked bool
	panicVal any
}

// callWithTimeout runs one attempt under a deadline. The attempt runs on its
// own goroutine so the engine can stop waiting when the deadline passes; the
// operation sees the deadline through its context and should return soon after.
// The goroutine holds the session guard while the operation runs, so the
// next attempt cannot start until this one has returned.
// A panic in the operation is re-raised on the caller's goroutine.
func callWithTimeout[T any](
	ctx context.Context,
	cfg Config,
	guard *attemptGuard,
	attempt uint,
	op Operation[T],
) (T, error) {
	var zero T

	tctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	done := make(chan attemptResult[T], 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attemptResult[T]{panicked: true, panicVal: r}
			}
		}()

		guard.mu.Lock()
		defer guard.mu.Unlock()

		// The engine has already given up on this attempt.
		if !guard.running.Load() || tctx.Err() != nil {
			return
		}

		value, err := op(tctx, attempt)
		done <- attemptResult[T]{value: value, err: err}
	}()

	timedOut := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		return NewTimeoutError(cfg.TimeoutMessage, cfg.Timeout)
	}

	select {
	case res := <-done:
		if res.panicked {
			panic(res.panicVal)
		}

		// An operation that noticed the deadline itself still reports a timeout.
		if res.err != nil && tctx.Err() != nil {
			return zero, timedOut()
		}

		return res.value, res.err
	case <-tctx.Done():
		return zero, timedOut()
	}
}
