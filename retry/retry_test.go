package retry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"testing/synctest"
	"time"

	"github.com/amp-labs/amp-toolkit/logger"
	"github.com/amp-labs/amp-toolkit/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

var errTemporary = errors.New("temporary error")

// failTimes returns an operation that fails n times, then returns value.
func failTimes[T any](n int, value T, calls *int) Operation[T] {
	return func(context.Context, uint) (T, error) {
		*calls++
		if *calls <= n {
			var zero T

			return zero, errTemporary
		}

		return value, nil
	}
}

func TestDo_Success(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(t.Context(), func(context.Context, uint) error {
		calls++

		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(t.Context(), func(context.Context, uint) error {
		calls++
		if calls < 3 {
			return errTemporary
		}

		return nil
	}, WithMaxRetries(5), WithInitialDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(t.Context(), func(context.Context, uint) error {
		calls++

		return errTemporary
	}, WithMaxRetries(2), WithInitialDelay(time.Millisecond))

	assert.Same(t, errTemporary, err)
	assert.Equal(t, 3, calls, "one initial attempt plus two retries")
}

func TestDo_ZeroRetries(t *testing.T) {
	t.Parallel()

	calls := 0
	retried := false

	err := Do(t.Context(), func(context.Context, uint) error {
		calls++

		return errTemporary
	}, WithMaxRetries(0), WithOnRetry(func(error, uint, time.Duration) { retried = true }))

	assert.Same(t, errTemporary, err)
	assert.Equal(t, 1, calls)
	assert.False(t, retried, "OnRetry never runs without a retry")
}

func TestDo_SurfacesLastError(t *testing.T) {
	t.Parallel()

	errs := []error{
		errors.New("first"),  //nolint:err113 // Test error
		errors.New("second"), //nolint:err113 // Test error
		errors.New("third"),  //nolint:err113 // Test error
	}

	err := Do(t.Context(), func(_ context.Context, attempt uint) error {
		return errs[attempt]
	}, WithMaxRetries(2), WithInitialDelay(0))

	assert.Same(t, errs[2], err)
}

func TestDoValue_Success(t *testing.T) {
	t.Parallel()

	result, err := DoValue(t.Context(), func(context.Context, uint) (string, error) {
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
}

func TestDoValue_SuccessAfterRetries(t *testing.T) {
	t.Parallel()

	calls := 0

	result, err := DoValue(t.Context(), failTimes(2, 42, &calls), WithInitialDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
}

func TestDoValue_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	calls := 0

	result, err := DoValue(t.Context(), failTimes(10, "never", &calls),
		WithMaxRetries(1), WithInitialDelay(time.Millisecond))

	require.ErrorIs(t, err, errTemporary)
	assert.Empty(t, result, "should return zero value on failure")
	assert.Equal(t, 2, calls)
}

func TestDo_DefaultBackoffSchedule(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		start := time.Now()

		var (
			callTimes []time.Duration
			delays    []time.Duration
		)

		err := Do(t.Context(), func(context.Context, uint) error {
			callTimes = append(callTimes, time.Since(start))

			return errTemporary
		}, WithOnRetry(func(_ error, _ uint, next time.Duration) {
			delays = append(delays, next)
		}))

		require.ErrorIs(t, err, errTemporary)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
		assert.Equal(t, []time.Duration{0, time.Second, 3 * time.Second, 7 * time.Second}, callTimes)
	})
}

func TestDo_BackoffCappedAtMaxDelay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var delays []time.Duration

		calls := 0

		_, err := DoValue(t.Context(), failTimes(3, "done", &calls),
			WithInitialDelay(100*time.Millisecond),
			WithBackoffFactor(2),
			WithMaxDelay(250*time.Millisecond),
			WithOnRetry(func(_ error, _ uint, next time.Duration) {
				delays = append(delays, next)
			}))

		require.NoError(t, err)
		assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 250 * time.Millisecond}, delays)
	})
}

func TestDo_CustomBackoff(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		start := time.Now()
		calls := 0

		_, err := DoValue(t.Context(), failTimes(2, true, &calls),
			WithBackoff(ConstantBackoff(5*time.Second)),
			WithInitialDelay(time.Hour))

		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, time.Since(start))
	})
}

func TestDo_OnRetryArguments(t *testing.T) {
	t.Parallel()

	type call struct {
		err     error
		attempt uint
	}

	var calls []call

	err := Do(t.Context(), func(context.Context, uint) error {
		return errTemporary
	}, WithMaxRetries(2), WithInitialDelay(0), WithOnRetry(func(err error, attempt uint, _ time.Duration) {
		calls = append(calls, call{err: err, attempt: attempt})
	}))

	require.Error(t, err)
	assert.Equal(t, []call{{errTemporary, 0}, {errTemporary, 1}}, calls)
}

func TestDo_ShouldRetryFalseStopsImmediately(t *testing.T) {
	t.Parallel()

	calls := 0
	retried := false

	err := Do(t.Context(), func(context.Context, uint) error {
		calls++

		return errValidation
	},
		WithMaxRetries(5),
		WithShouldRetry(func(err error, _ uint) bool { return !errors.Is(err, errValidation) }),
		WithOnRetry(func(error, uint, time.Duration) { retried = true }),
	)

	assert.Same(t, errValidation, err)
	assert.Equal(t, 1, calls)
	assert.False(t, retried)
}

func TestDo_ShouldRetrySeesAttempt(t *testing.T) {
	t.Parallel()

	var seen []uint

	err := Do(t.Context(), func(context.Context, uint) error {
		return errTemporary
	}, WithMaxRetries(10), WithInitialDelay(0), WithShouldRetry(func(_ error, attempt uint) bool {
		seen = append(seen, attempt)

		return attempt < 2
	}))

	require.ErrorIs(t, err, errTemporary)
	assert.Equal(t, []uint{0, 1, 2}, seen)
}

func TestDo_PanickingOnRetryIsIgnored(t *testing.T) {
	t.Parallel()

	ctx := tests.GetUniqueContext(t)
	calls := 0

	result, err := DoValue(ctx, failTimes(1, "ok", &calls),
		WithInitialDelay(0),
		WithOnRetry(func(error, uint, time.Duration) { panic("observer blew up") }))

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}

func TestDo_PanickingShouldRetryStops(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ctx := logger.WithLogger(t.Context(), slog.New(slog.NewJSONHandler(&buf, nil)))
	calls := 0

	err := Do(ctx, func(context.Context, uint) error {
		calls++

		return errTemporary
	}, WithShouldRetry(func(error, uint) bool { panic("predicate blew up") }))

	assert.Same(t, errTemporary, err)
	assert.Equal(t, 1, calls)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "panic encountered in retry ShouldRetry callback", line["msg"])
	assert.Contains(t, line["error"], "predicate blew up")
}

func TestDo_OperationPanicPropagates(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, "boom", func() {
		_ = Do(t.Context(), func(context.Context, uint) error { panic("boom") })
	})
}

func TestDo_ContextCancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	calls := 0
	err := Do(ctx, func(context.Context, uint) error {
		calls++

		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		start := time.Now()
		calls := 0

		err := Do(ctx, func(context.Context, uint) error {
			calls++

			return errTemporary
		}, WithInitialDelay(time.Minute), WithOnRetry(func(error, uint, time.Duration) {
			time.AfterFunc(time.Second, cancel)
		}))

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
		assert.Equal(t, time.Second, time.Since(start), "the wait ends as soon as the context is cancelled")
	})
}

func TestDo_RespectsContextDeadline(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 2500*time.Millisecond)
		defer cancel()

		calls := 0
		err := Do(ctx, func(context.Context, uint) error {
			calls++

			return errTemporary
		}, WithMaxRetries(10))

		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 2, calls, "attempts at 0s and 1s, then the 2s wait outlives the deadline")
	})
}

func TestDo_WithTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		calls := 0

		err := Do(t.Context(), func(ctx context.Context, _ uint) error {
			calls++
			<-ctx.Done()

			return ctx.Err()
		}, WithTimeout(50*time.Millisecond), WithMaxRetries(1), WithInitialDelay(10*time.Millisecond))

		var timeoutErr *TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		assert.Equal(t, TimeoutCode, timeoutErr.Code())
		assert.Equal(t, DefaultTimeoutMessage, timeoutErr.Error())
		assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)
		assert.True(t, timeoutErr.Temporary())
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 2, calls, "timed out attempts are retried")
	})
}

func TestDo_WithTimeoutMessage(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		_, err := DoValue(t.Context(), func(context.Context, uint) (int, error) {
			// Ignores its context entirely.
			time.Sleep(time.Second)

			return 1, nil
		}, WithTimeout(100*time.Millisecond), WithTimeoutMessage("upstream too slow"), WithMaxRetries(0))

		var timeoutErr *TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		assert.Equal(t, "upstream too slow", err.Error())
		assert.Equal(t, 100*time.Millisecond, timeoutErr.Timeout)

		// Let the abandoned attempt finish before the bubble ends.
		time.Sleep(time.Second)
	})
}

func TestDo_TimedOutAttemptsNeverOverlap(t *testing.T) {
	t.Parallel()

	var (
		active    atomic.Int32
		maxActive atomic.Int32
		calls     atomic.Int32
	)

	err := Do(t.Context(), func(context.Context, uint) error {
		calls.Inc()

		n := active.Inc()
		defer active.Dec()

		if n > maxActive.Load() {
			maxActive.Store(n)
		}

		// Ignores its context and outlives the deadline.
		time.Sleep(100 * time.Millisecond)

		return nil
	}, WithTimeout(20*time.Millisecond), WithMaxRetries(2), WithInitialDelay(0))

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int32(1), maxActive.Load(), "an attempt starts only after the previous one returned")

	// The last attempt is still sleeping; wait for it so no goroutine leaks.
	require.Eventually(t, func() bool { return active.Load() == 0 }, time.Second, 10*time.Millisecond)
}

func TestDo_WithTimeoutFastOperation(t *testing.T) {
	t.Parallel()

	result, err := DoValue(t.Context(), func(_ context.Context, attempt uint) (uint, error) {
		return attempt + 7, nil
	}, WithTimeout(time.Minute))

	require.NoError(t, err)
	assert.Equal(t, uint(7), result)
}

func TestDo_WithTimeoutPanicPropagates(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, "boom", func() {
		_ = Do(t.Context(), func(context.Context, uint) error { panic("boom") }, WithTimeout(time.Minute))
	})
}

func TestDo_BudgetRefusesRetry(t *testing.T) {
	t.Parallel()

	budget, _ := newTestBudget(0, 0)
	calls := 0

	err := Do(t.Context(), func(context.Context, uint) error {
		calls++

		return errTemporary
	}, WithBudget(budget), WithInitialDelay(0))

	require.ErrorIs(t, err, ErrExhausted)
	require.ErrorIs(t, err, errTemporary)
	assert.Equal(t, 1, calls)
}

func TestDo_BudgetAllowsRetries(t *testing.T) {
	t.Parallel()

	budget, _ := newTestBudget(1000, 0.1)
	calls := 0

	_, err := DoValue(t.Context(), failTimes(2, 1, &calls), WithBudget(budget), WithInitialDelay(0))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ConcurrentSessionsAreIndependent(t *testing.T) {
	t.Parallel()

	runner := NewValueRunner[int](WithMaxRetries(3), WithInitialDelay(time.Millisecond))
	results := make(chan int, 10)

	for i := range 10 {
		go func() {
			calls := 0

			value, err := runner.Do(t.Context(), failTimes(i%4, i, &calls))
			if err != nil {
				results <- -1

				return
			}

			results <- value
		}()
	}

	sum := 0
	for range 10 {
		sum += <-results
	}

	assert.Equal(t, 45, sum)
}
