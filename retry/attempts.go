package retry

import "context"

// ctxKey is the type for context keys used internally to avoid collisions.
type ctxKey string

// attemptKey is the context key used to store and retrieve the current attempt number.
const attemptKey ctxKey = "attempt"

// withAttempt adds the attempt number to the context handed to the operation.
func withAttempt(ctx context.Context, attempt uint) context.Context {
	return context.WithValue(ctx, attemptKey, attempt)
}

// Attempt retrieves the current zero-based attempt number from the context.
// Returns 0 if no attempt number is stored in the context. It is useful in
// code that only receives the context, such as a wrapped function.
//
// Example:
//
//	err := retry.Do(ctx, func(ctx context.Context, _ uint) error {
//	    return client.Call(ctx, retry.Attempt(ctx))
//	})
func Attempt(ctx context.Context) uint {
	attemptNum, _ := ctx.Value(attemptKey).(uint)

	return attemptNum
}
