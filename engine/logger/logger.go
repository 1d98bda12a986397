// Package logger holds the process-wide structured logger shared by every engine package.
// By default nothing is logged; call SetLogger (or SetLogger(New(...))) to enable output.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

// LevelTrace is more verbose than slog.LevelDebug and is used for per-frame diagnostics.
const LevelTrace = slog.LevelDebug - 4

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that SetLogger
// can be called concurrently with logging from worker goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for the engine and all of its sub-packages.
// Pass nil to restore the default silent behaviour.
//
// Log levels used by the engine:
//   - LevelTrace: per-frame diagnostics (pass dispatch sizes, work-list counts)
//   - slog.LevelDebug: resource (re)allocation, shader defines, debug hooks
//   - slog.LevelInfo: lifecycle events (algorithm switch, recompilation, resize)
//   - slog.LevelWarn: buffer corruption, work-list overflow, hash collisions
//   - slog.LevelError: shader compile and link failures
//
// Parameters:
//   - l: the logger to install, or nil to disable logging
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Safe for concurrent use.
//
// Returns:
//   - *slog.Logger: the active logger, never nil
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// New builds a console logger writing to w at the given minimum level.
//
// Parameters:
//   - w: destination writer, typically os.Stderr
//   - level: minimum level that will be written
//
// Returns:
//   - *slog.Logger: a logger backed by a ConsoleHandler
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewConsoleHandler(w, level))
}

// ParseLevel converts a textual level name into a slog.Level.
// Accepted names are trace, debug, info, warn (or warning) and error, case-insensitive.
//
// Parameters:
//   - s: the level name
//
// Returns:
//   - slog.Level: the parsed level
//   - error: ErrUnknownLevel wrapped with the offending name
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// LevelName returns the short upper-case label used by the console handler.
func LevelName(l slog.Level) string {
	switch {
	case l < slog.LevelDebug:
		return "TRACE"
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}
