package retry

import "errors"

var (
	// ErrExhausted is returned, wrapped together with the last failure, when a
	// retry budget refuses a retry.
	ErrExhausted = errors.New("retry budget exhausted")

	// ErrNoOperations is returned by Race when it is given nothing to race.
	ErrNoOperations = errors.New("no operations to run")
)

// Error is an error that states whether it may be retried. Abort returns one
// whose Temporary reports false.
type Error interface {
	// Temporary returns true if the error is temporary and the operation should be retried.
	Temporary() bool
	error
}

// permanentError wraps an error to mark it as permanent (non-retryable).
type permanentError struct {
	error
}

// Temporary returns false to indicate this error should not be retried.
func (e *permanentError) Temporary() bool { return false }

// Unwrap returns the underlying error for error chain unwrapping.
func (e *permanentError) Unwrap() error {
	return e.error
}

// Abort wraps an error to mark it as permanent, causing the retry loop to stop
// immediately without further attempts. The engine returns the original error,
// not the wrapper.
//
// Only Abort stops a session early. Other errors, including ones whose own
// Temporary method reports false such as *net.OpError, are left to
// ShouldRetry.
//
// Example:
//
//	if err := validateInput(data); err != nil {
//	    return retry.Abort(err)  // Don't retry validation errors
//	}
func Abort(err error) Error {
	return &permanentError{err}
}

// permanentCause returns the error wrapped by Abort, or nil when err may be
// retried.
func permanentCause(err error) error {
	var p *permanentError
	if errors.As(err, &p) && p.error != nil {
		return p.error
	}

	return nil
}
