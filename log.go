package wsclient

import (
	"log/slog"
	"os"
)

// Logger wraps a *slog.Logger so Conn can log state transitions and
// protocol errors without every call site checking for a nil config
// field. A Logger constructed with a nil handler discards everything.
type Logger struct {
	slog *slog.Logger
}

// NewLogger wraps h in a Logger. A nil h produces a Logger whose output
// goes nowhere, matching the behavior of WithLogger(nil-backed) as an
// opt-out of logging.
func NewLogger(h slog.Handler) *Logger {
	if h == nil {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn + 1})
	}
	return &Logger{slog: slog.New(h)}
}

func (l *Logger) debug(msg string, args ...any) {
	if l == nil || l.slog == nil {
		return
	}
	l.slog.Debug(msg, args...)
}

func (l *Logger) warn(msg string, args ...any) {
	if l == nil || l.slog == nil {
		return
	}
	l.slog.Warn(msg, args...)
}
