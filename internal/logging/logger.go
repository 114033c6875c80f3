// Package logging defines a minimal structured-logging interface used across
// the project, with slog and zerolog implementations.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "starting server", "addr", addr, "mode", mode)
type Logger interface {
	// Debug logs verbose diagnostics.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Supported backends.
const (
	BackendSlog    = "slog"
	BackendZerolog = "zerolog"
)

// Level names accepted by New.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// New builds a Logger for the named backend writing JSON lines to w,
// dropping entries below level. Unknown backends fall back to slog and
// unknown levels to info. A nil writer means os.Stdout.
func New(backend, level string, w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	switch backend {
	case BackendZerolog:
		return NewZerologLogger(zerolog.New(w).Level(zerologLevel(level)).With().Timestamp().Logger())
	default:
		return NewSlogJSONLogger(w, slogLevel(level))
	}
}

// Nop returns a Logger that discards everything. Handy in tests.
func Nop() Logger {
	return NewZerologLogger(zerolog.Nop())
}
