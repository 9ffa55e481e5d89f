// Package log provides the structured logger shared by the sqlitetest
// packages and the sqlitetest CLI.
package log

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// Logger is a custom structured logger on top of slog.Logger.
//
// The zero Logger discards everything, so library callers that do not care
// about logs never have to construct one.
type Logger struct {
	slogger *slog.Logger
}

// NewLogger creates a new Logger that writes JSON to the given writer.
// The writer is typically os.Stdout but can be any io.Writer.
func NewLogger(writer io.Writer) Logger {
	slogger := slog.New(slog.NewJSONHandler(writer, nil))
	return Logger{
		slogger: slogger,
	}
}

// NewConsoleLogger creates a new Logger with human readable, colored
// output at the given minimum level.
func NewConsoleLogger(writer io.Writer, level slog.Level) Logger {
	slogger := slog.New(tint.NewHandler(writer, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	return Logger{
		slogger: slogger,
	}
}

// IsInitialized reports whether the logger was created with one of the
// constructors.
func (l *Logger) IsInitialized() bool {
	return l.slogger != nil
}

// Info logs structured info message.
//
// Accepts a message and a list of key-value pairs to be logged.
func (l *Logger) Info(msg string, keyVals ...KV) {
	if l.slogger == nil {
		return
	}
	l.slogger.Info(msg, kvToArgs(keyVals...)...)
}

// InfoNs logs structured info message with a namespace.
//
// The namespace is used to differentiate logs from different parts
// and will be included as the first key-value pair in the log.
func (l *Logger) InfoNs(namespace string, msg string, keyVals ...KV) {
	if l.slogger == nil {
		return
	}
	l.slogger.Info(msg, kvToArgsNs(namespace, keyVals...)...)
}

// Debug logs structured debug message.
func (l *Logger) Debug(msg string, keyVals ...KV) {
	if l.slogger == nil {
		return
	}
	l.slogger.Debug(msg, kvToArgs(keyVals...)...)
}

// DebugNs logs structured debug message with a namespace.
func (l *Logger) DebugNs(namespace string, msg string, keyVals ...KV) {
	if l.slogger == nil {
		return
	}
	l.slogger.Debug(msg, kvToArgsNs(namespace, keyVals...)...)
}

// Warn logs structured warning message.
func (l *Logger) Warn(msg string, keyVals ...KV) {
	if l.slogger == nil {
		return
	}
	l.slogger.Warn(msg, kvToArgs(keyVals...)...)
}

// WarnNs logs structured warning message with a namespace.
func (l *Logger) WarnNs(namespace string, msg string, keyVals ...KV) {
	if l.slogger == nil {
		return
	}
	l.slogger.Warn(msg, kvToArgsNs(namespace, keyVals...)...)
}

// Error logs structured error message.
func (l *Logger) Error(msg string, keyVals ...KV) {
	if l.slogger == nil {
		return
	}
	l.slogger.Error(msg, kvToArgs(keyVals...)...)
}

// ErrorNs logs structured error message with a namespace.
//
// Accepts a namespace, a message, and a list of key-value pairs to
// be logged.
func (l *Logger) ErrorNs(namespace string, msg string, keyVals ...KV) {
	if l.slogger == nil {
		return
	}
	l.slogger.Error(msg, kvToArgsNs(namespace, keyVals...)...)
}
