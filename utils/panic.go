package utils //nolint:revive // utils is an appropriate package name for utility functions

import (
	"fmt"
	"runtime/debug"

	"github.com/amp-labs/amp-toolkit/errors"
)

// GetPanicRecoveryError converts a recovered panic value and optional stack trace
// into a standard error. If the panic value is nil, it returns nil.
// If the panic value is an error, it wraps it with ErrPanicRecovery.
// If the panic value is not an error, it formats it as a string and wraps it.
// If a stack trace is provided, it appends it to the error message.
func GetPanicRecoveryError(err any, stack []byte) error {
	if err == nil {
		return nil
	}

	format := "%w: %v"
	if e, ok := err.(error); ok {
		format = "%w: %w"
		err = e
	}

	if stack != nil {
		return fmt.Errorf(format+"\nstack trace:\n%s", errors.ErrPanicRecovery, err, string(stack))
	}

	return fmt.Errorf(format, errors.ErrPanicRecovery, err)
}

// CallSafely runs f and turns a panic inside it into an error carrying the
// stack trace. It returns nil when f returns normally.
func CallSafely(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = GetPanicRecoveryError(r, debug.Stack())
		}
	}()

	f()

	return nil
}
