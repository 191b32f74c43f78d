// Package log provides structured logging for the whitebox pipeline.
//
// It exposes a minimal Logger interface in the style of log/slog together
// with a zerolog-backed default implementation. Components obtain named
// loggers via GetLoggerWithName and attach structured fields through
// variadic key-value pairs:
//
//	logger := log.GetLoggerWithName("binning")
//	logger.Info("feature binned",
//	    log.FeatureKey, "age",
//	    log.BinsKey, 4,
//	)
package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger is a structured logging interface with field chaining.
type Logger interface {
	// Debug logs a debug-level message with optional key-value fields.
	Debug(msg string, fields ...any)
	// Info logs an info-level message with optional key-value fields.
	Info(msg string, fields ...any)
	// Warn logs a warning-level message with optional key-value fields.
	Warn(msg string, fields ...any)
	// Error logs an error-level message with optional key-value fields.
	// If the first field is an error it is attached as the "error" field.
	Error(msg string, fields ...any)
	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger
}

var (
	mu     sync.RWMutex
	output io.Writer     = os.Stderr
	level  zerolog.Level = zerolog.InfoLevel
)

// SetOutput redirects all loggers created afterwards to w. Useful in tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetLevel sets the minimum level for loggers created afterwards.
func SetLevel(l zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// GetLogger returns the default logger.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	zl := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &zerologLogger{zl: zl}
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	zl := zerolog.New(output).Level(level).With().Timestamp().Str(ComponentKey, name).Logger()
	return &zerologLogger{zl: zl}
}

type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	ev := l.zl.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			fields = fields[1:]
		}
	}
	l.emit(ev, msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		ctx = ctx.Interface(fieldKey(fields[i]), fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (l *zerologLogger) emit(ev *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		ev = ev.Interface(fieldKey(fields[i]), fields[i+1])
	}
	ev.Msg(msg)
}

func fieldKey(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
