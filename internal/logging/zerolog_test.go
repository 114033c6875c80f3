package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestZerolog(t *testing.T) (*ZerologLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestZerologLogger_Levels(t *testing.T) {
	log, buf := newTestZerolog(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", "two")
	log.Warn(ctx, "wrn")
	log.Error(ctx, "err", "d", true)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 4)

	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "dbg", lines[0]["message"])
	assert.EqualValues(t, 1, lines[0]["a"])
	assert.Equal(t, "info", lines[1]["level"])
	assert.Equal(t, "two", lines[1]["b"])
	assert.Equal(t, "warn", lines[2]["level"])
	assert.Equal(t, "error", lines[3]["level"])
	assert.Equal(t, true, lines[3]["d"])
}

func TestZerologLogger_With(t *testing.T) {
	log, buf := newTestZerolog(t)

	log.With("module", "scanner").Info(context.Background(), "tick", "family", "todo")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "scanner", lines[0]["module"])
	assert.Equal(t, "todo", lines[0]["family"])
}

func TestNew_SelectsBackend(t *testing.T) {
	var buf bytes.Buffer

	_, ok := New(BackendZerolog, LevelInfo, &buf).(*ZerologLogger)
	assert.True(t, ok)

	_, ok = New(BackendSlog, LevelInfo, &buf).(*SlogLogger)
	assert.True(t, ok)

	_, ok = New("unknown", LevelInfo, &buf).(*SlogLogger)
	assert.True(t, ok)
}

func TestNew_HonorsLevel(t *testing.T) {
	for _, backend := range []string{BackendSlog, BackendZerolog} {
		t.Run(backend, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(backend, LevelWarn, &buf)

			l.Debug(context.Background(), "dbg")
			l.Info(context.Background(), "inf")
			l.Warn(context.Background(), "wrn")

			lines := decodeLines(t, &buf)
			require.Len(t, lines, 1)
			assert.Contains(t, buf.String(), "wrn")
		})
	}
}

func TestLevelParsing_FallsBackToInfo(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, zerologLevel(""))
	assert.Equal(t, zerolog.InfoLevel, zerologLevel("loud"))
	assert.Equal(t, zerolog.DebugLevel, zerologLevel("DEBUG"))

	assert.Equal(t, slog.LevelInfo, slogLevel("loud"))
	assert.Equal(t, slog.LevelWarn, slogLevel("warn"))
	assert.Equal(t, slog.LevelDebug, slogLevel("debug"))
}

func TestNop_DiscardsOutput(t *testing.T) {
	l := Nop()
	l.Info(context.Background(), "nothing")
	l.With("k", "v").Error(context.Background(), "still nothing")
}
