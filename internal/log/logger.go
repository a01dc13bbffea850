// Package log is the structured logger shared by the compiler and the CLI.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// Logger writes leveled, structured records. Implementations are safe for
// concurrent use.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	Enabled(level slog.Level) bool
}

// Plans are written to stdout, so the default logger uses stderr.
var defaultLogger atomic.Value

func init() {
	SetDefault(NewTextLogger(os.Stderr, slog.LevelWarn))
}

// holder keeps atomic.Value storing a single concrete type.
type holder struct{ Logger }

// SetDefault replaces the logger returned by Default.
func SetDefault(l Logger) {
	defaultLogger.Store(holder{l})
}

// Default returns the process-wide logger.
func Default() Logger {
	return defaultLogger.Load().(holder).Logger
}

type slogLogger struct {
	slog *slog.Logger
}

// New wraps an slog handler.
func New(handler slog.Handler) Logger {
	return &slogLogger{slog: slog.New(handler)}
}

// NewTextLogger writes logfmt-style records to w.
func NewTextLogger(w io.Writer, level slog.Level) Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger writes one JSON object per record to w.
func NewJSONLogger(w io.Writer, level slog.Level) Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func (l *slogLogger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{slog: l.slog.With(args...)}
}

func (l *slogLogger) Enabled(level slog.Level) bool {
	return l.slog.Enabled(context.Background(), level)
}

type nopLogger struct{}

// Nop returns a logger that discards everything.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...any)     {}
func (nopLogger) Info(string, ...any)      {}
func (nopLogger) Warn(string, ...any)      {}
func (nopLogger) Error(string, ...any)     {}
func (n nopLogger) With(...any) Logger     { return n }
func (nopLogger) Enabled(slog.Level) bool { return false }

// String returns a string attribute.
func String(key, value string) slog.Attr { return slog.String(key, value) }

// Int returns an int attribute.
func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

// Bool returns a bool attribute.
func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

// Duration returns a duration attribute.
func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

// Stringer returns an attribute holding v.String(), evaluated eagerly.
func Stringer(key string, v fmt.Stringer) slog.Attr { return slog.String(key, v.String()) }

// Hex returns an attribute rendering value as 16 hex digits, the form plan
// fingerprints are printed in.
func Hex(key string, value uint64) slog.Attr { return slog.String(key, fmt.Sprintf("%016x", value)) }

// Err returns the error under the "error" key.
func Err(err error) slog.Attr { return slog.Any("error", err) }
