package retry

import (
	"context"
	"slices"
)

// Runner executes error-only operations with a preset configuration.
// Options passed to Do override the preset field by field, for that call only.
type Runner interface {
	Do(ctx context.Context, f func(ctx context.Context, attempt uint) error, overrides ...Option) error
	// Config returns the configuration a call with these overrides would use.
	Config(overrides ...Option) Config
}

// ValueRunner is the value-returning counterpart of Runner.
type ValueRunner[T any] interface {
	Do(ctx context.Context, op Operation[T], overrides ...Option) (T, error)
	// Config returns the configuration a call with these overrides would use.
	Config(overrides ...Option) Config
}

// NewRunner creates a new Runner whose calls start from the given defaults.
// With no defaults it uses DefaultConfig: 3 retries, 1s initial delay
// doubling up to 30s.
//
// Example:
//
//	runner := retry.NewRunner(
//	    retry.WithMaxRetries(5),
//	    retry.WithTimeout(30*time.Second),
//	)
//	err := runner.Do(ctx, operation, retry.WithInitialDelay(50*time.Millisecond))
func NewRunner(defaults ...Option) Runner {
	return &runnerImpl{preset: newPreset(defaults)}
}

// NewValueRunner creates a new ValueRunner whose calls start from the given defaults.
//
// Example:
//
//	runner := retry.NewValueRunner[string](retry.WithMaxRetries(5))
//	result, err := runner.Do(ctx, operation)
func NewValueRunner[T any](defaults ...Option) ValueRunner[T] {
	return &valueRunnerImpl[T]{preset: newPreset(defaults)}
}

// preset holds the captured defaults. It is never modified after creation,
// so runners are safe for concurrent use.
type preset struct {
	defaults []Option
}

func newPreset(defaults []Option) preset {
	return preset{defaults: slices.Clone(defaults)}
}

// Config resolves the defaults followed by the overrides.
func (p preset) Config(overrides ...Option) Config {
	opts := make([]Option, 0, len(p.defaults)+len(overrides))
	opts = append(opts, p.defaults...)
	opts = append(opts, overrides...)

	return Resolve(opts...)
}

// runnerImpl is the concrete implementation of the Runner interface.
type runnerImpl struct {
	preset
}

func (r *runnerImpl) Do(ctx context.Context, f func(ctx context.Context, attempt uint) error, overrides ...Option) error {
	_, err := do(ctx, r.Config(overrides...), unit(f))

	return err
}

// valueRunnerImpl is the concrete implementation of the ValueRunner interface.
type valueRunnerImpl[T any] struct {
	preset
}

func (v *valueRunnerImpl[T]) Do(ctx context.Context, op Operation[T], overrides ...Option) (T, error) {
	return do(ctx, v.Config(overrides...), op)
}
