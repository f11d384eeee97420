package logger

import (
	"bytes"
	"encoding/json"
	"log"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any

	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}

		var record map[string]any

		require.NoError(t, json.Unmarshal(line, &record))

		records = append(records, record)
	}

	return records
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
	Get(WithMachine(t.Context(), "turnstile")).Info("with machine")
	Get(With(t.Context(), "coin", 10)).Info("with values")
	Get(WithMuted(t.Context(), true)).Info("muted")

	records := decodeLines(t, &buf)
	require.Len(t, records, 4)

	assert.Equal(t, "test", records[0]["subsystem"])
	assert.Equal(t, "overridden", records[1]["subsystem"])
	assert.Equal(t, "turnstile", records[2]["machine"])
	assert.InDelta(t, 10, records[3]["coin"], 0)
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

	log.Println("legacy")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "legacy", records[0]["msg"])
}

func TestWithAccumulates(t *testing.T) {
	t.Parallel()

	ctx := With(With(t.Context(), "a", 1), "b", 2)

	assert.Equal(t, []any{"a", 1, "b", 2}, getValues(ctx))
	assert.Equal(t, t.Context(), With(t.Context()))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	level, err = ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("chatty")
	require.ErrorIs(t, err, ErrInvalidLogLevel)
}

func TestParseOutput(t *testing.T) {
	t.Parallel()

	_, err := ParseOutput("stderr")
	require.NoError(t, err)

	_, err = ParseOutput("file")
	require.ErrorIs(t, err, ErrInvalidLogOutput)
}

func TestExtraHandlers(t *testing.T) { //nolint:paralleltest
	var console, extra bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		Subsystem: "test",
		JSON:      true,
		Output:    &console,
		Extra: []slog.Handler{
			nil,
			slog.NewJSONHandler(&extra, &slog.HandlerOptions{Level: slog.LevelWarn}),
		},
	})

	Get().Info("console only")
	Get().Warn("both")

	assert.Len(t, decodeLines(t, &console), 2)

	records := decodeLines(t, &extra)
	require.Len(t, records, 1)
	assert.Equal(t, "both", records[0]["msg"])
	assert.Equal(t, "test", records[0]["subsystem"])
}
