package retry

import "context"

// Wrap returns a function with the same shape as fn that retries fn on
// failure. The options are resolved once, here; every call of the returned
// function is an independent retry session.
//
// Example:
//
//	fetch := retry.Wrap(client.Fetch, retry.WithMaxRetries(2))
//	data, err := fetch(ctx)
func Wrap[T any](fn func(ctx context.Context) (T, error), opts ...Option) func(ctx context.Context) (T, error) {
	cfg := Resolve(opts...)

	return func(ctx context.Context) (T, error) {
		return do(ctx, cfg, func(ctx context.Context, _ uint) (T, error) {
			return fn(ctx)
		})
	}
}

// Wrap1 is Wrap for functions taking one argument. The argument given to the
// wrapped function is passed unchanged to fn on every attempt.
func Wrap1[A, T any](
	fn func(ctx context.Context, a A) (T, error),
	opts ...Option,
) func(ctx context.Context, a A) (T, error) {
	cfg := Resolve(opts...)

	return func(ctx context.Context, a A) (T, error) {
		return do(ctx, cfg, func(ctx context.Context, _ uint) (T, error) {
			return fn(ctx, a)
		})
	}
}

// Wrap2 is Wrap for functions taking two arguments.
//
// Example:
//
//	lookup := retry.Wrap2(store.Lookup, retry.WithMaxRetries(3))
//	row, err := lookup(ctx, 42, "test")
func Wrap2[A, B, T any](
	fn func(ctx context.Context, a A, b B) (T, error),
	opts ...Option,
) func(ctx context.Context, a A, b B) (T, error) {
	cfg := Resolve(opts...)

	return func(ctx context.Context, a A, b B) (T, error) {
		return do(ctx, cfg, func(ctx context.Context, _ uint) (T, error) {
			return fn(ctx, a, b)
		})
	}
}

// Wrap3 is Wrap for functions taking three arguments.
func Wrap3[A, B, C, T any](
	fn func(ctx context.Context, a A, b B, c C) (T, error),
	opts ...Option,
) func(ctx context.Context, a A, b B, c C) (T, error) {
	cfg := Resolve(opts...)

	return func(ctx context.Context, a A, b B, c C) (T, error) {
		return do(ctx, cfg, func(ctx context.Context, _ uint) (T, error) {
			return fn(ctx, a, b, c)
		})
	}
}

// WrapVariadic is Wrap for variadic functions. The arguments are captured at
// call time and the same slice is passed to fn on every attempt.
func WrapVariadic[A, T any](
	fn func(ctx context.Context, args ...A) (T, error),
	opts ...Option,
) func(ctx context.Context, args ...A) (T, error) {
	cfg := Resolve(opts...)

	return func(ctx context.Context, args ...A) (T, error) {
		return do(ctx, cfg, func(ctx context.Context, _ uint) (T, error) {
			return fn(ctx, args...)
		})
	}
}
