// Package try holds the outcome of a computation that either produced a value
// or failed. It is the settled form of an asynchronous result.
package try

// Status names which way a Try settled.
type Status string

const (
	// Fulfilled marks a Try that holds a value.
	Fulfilled Status = "fulfilled"
	// Rejected marks a Try that holds an error.
	Rejected Status = "rejected"
)

type Try[A any] struct {
	Value A
	Error error
}

// Success returns a fulfilled Try holding value.
func Success[A any](value A) Try[A] {
	return Try[A]{Value: value}
}

// Failure returns a rejected Try holding err. The value is the zero value of A.
func Failure[A any](err error) Try[A] {
	return Try[A]{Error: err}
}

// Of builds a Try from a (value, error) pair. A non-nil error wins and the
// value is dropped.
func Of[A any](value A, err error) Try[A] {
	if err != nil {
		return Failure[A](err)
	}

	return Success(value)
}

func (t Try[A]) IsSuccess() bool {
	return t.Error == nil
}

func (t Try[A]) IsFailure() bool {
	return t.Error != nil
}

// Status reports Fulfilled or Rejected.
func (t Try[A]) Status() Status {
	if t.IsFailure() {
		return Rejected
	}

	return Fulfilled
}

func (t Try[A]) Get() (A, error) { //nolint:ireturn
	if t.IsFailure() {
		var zero A

		return zero, t.Error
	}

	return t.Value, nil
}

func (t Try[A]) GetOrElse(defaultValue A) A { //nolint:ireturn
	if t.IsSuccess() {
		return t.Value
	}

	return defaultValue
}
