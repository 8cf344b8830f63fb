package logger

import (
	"bytes"
	"encoding/json"
	"log"
	"log/slog"
	"strings"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))

		out = append(out, rec)
	}

	return out
}

func TestLogger(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		Subsystem: "test",
		JSON:      true,
		Output:    &buf,
	})

	Get().Info("default subsystem")
	Get(WithSubsystem(t.Context(), "overridden")).Info("overridden subsystem")
	Get(With(With(t.Context(), "a", 1), "b", "two")).Info("with values")
	Get(WithMuted(t.Context(), true)).Error("never written")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "test", lines[0]["subsystem"])
	assert.Equal(t, "overridden", lines[1]["subsystem"])
	assert.InDelta(t, 1, lines[2]["a"], 0)
	assert.Equal(t, "two", lines[2]["b"])
}

func TestLegacy(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		Subsystem:   "test",
		JSON:        true,
		MinLevel:    slog.LevelDebug,
		LegacyLevel: slog.LevelInfo,
		Output:      &buf,
	})

	log.Println("legacy line")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "legacy line", lines[0]["msg"])
	assert.Equal(t, "INFO", lines[0]["level"])
}

func TestConfigureLoggingFromEnv(t *testing.T) {
	t.Setenv("LOG_JSON", "true")
	t.Setenv("LOG_LEVEL", "warn")

	var buf bytes.Buffer

	_, err := ConfigureLogging("env-app", WithOutput(&buf))
	require.NoError(t, err)

	Get().Info("filtered out")
	Get().Warn("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
	assert.Equal(t, "env-app", lines[0]["subsystem"])
}

func TestConfigureLoggingRejectsUnknownOutput(t *testing.T) {
	t.Setenv("LOG_OUTPUT", "syslog")

	_, err := ConfigureLogging("env-app")
	require.ErrorIs(t, err, ErrInvalidLogOutput)
}

func TestWithLogger(t *testing.T) {
	t.Parallel()

	ctx := WithLogger(t.Context(), slogt.New(t))

	// Routed to the test log; this only has to not panic and not hit slog.Default.
	Get(ctx).Info("routed to the test log")

	assert.NotSame(t, slog.Default(), Get(ctx))
	assert.Same(t, nullLogger, Get(WithMuted(ctx, true)))
}
