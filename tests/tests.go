// Package tests builds per-test contexts that carry a unique identifier, the
// test name, and a logger bound to the test, so log output from code under
// test lands in that test's output.
//
// Example usage:
//
//	func TestMyFeature(t *testing.T) {
//	    ctx := tests.GetUniqueContext(t)
//	    err := retry.Do(ctx, operation)
//	}
package tests

import (
	"context"
	"testing"

	"github.com/amp-labs/amp-toolkit/envutil"
	"github.com/amp-labs/amp-toolkit/logger"
	"github.com/google/uuid"
	"github.com/neilotoole/slogt"
)

// contextKey is a private type used for storing test metadata in context.Context.
type contextKey string

const (
	testIdKey   contextKey = "testId"
	testNameKey contextKey = "testName"
)

// Info is the test metadata stored on a context by GetUniqueContext.
type Info struct {
	Id   string
	Name string
}

// GetUniqueContext creates a new context derived from t.Context() that includes:
//   - A unique test identifier (UUID with "test-" prefix)
//   - The test name from t.Name()
//   - A slogt logger, so logger.Get(ctx) writes through t.Log
//
// The test identifier is also attached to every log line as "test_id".
func GetUniqueContext(t *testing.T) context.Context {
	t.Helper()

	id := "test-" + uuid.New().String()

	ctx := context.WithValue(t.Context(), testIdKey, id)
	ctx = context.WithValue(ctx, testNameKey, t.Name())
	ctx = logger.WithLogger(ctx, slogt.New(t))

	return logger.With(ctx, "test_id", id)
}

// GetTestInfo returns the metadata stored by GetUniqueContext.
func GetTestInfo(ctx context.Context) (Info, bool) {
	id, ok := ctx.Value(testIdKey).(string)
	if !ok {
		return Info{}, false
	}

	name, _ := ctx.Value(testNameKey).(string)

	return Info{Id: id, Name: name}, true
}

// CheckSkipped skips the test when the boolean environment variable envKey
// is true. defaultValue applies when the variable is unset.
//
// Example:
//
//	func TestSlowIntegration(t *testing.T) {
//	    tests.CheckSkipped(t, "SKIP_SLOW_TESTS", true)
//	}
func CheckSkipped(t *testing.T, envKey string, defaultValue bool) {
	t.Helper()

	if envutil.Bool(envKey, envutil.Default(defaultValue)).ValueOrElse(defaultValue) {
		t.Skipf("Skipping test because of environment variable: %s", envKey)
	}
}
