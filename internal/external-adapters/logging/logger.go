// Package logging adapts charmbracelet/log to the domain Logger interface.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/ochairo/decant/internal/domain/interfaces"
)

// Logger wraps a charmbracelet logger behind the domain interface so no
// package outside external-adapters imports the logging library directly.
type Logger struct {
	inner *log.Logger
}

// New creates a logger writing human-readable structured lines to stderr.
// Verbose enables debug-level output.
func New(verbose bool) *Logger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, verbose bool) *Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	inner := log.NewWithOptions(w, log.Options{
		Prefix: "decant",
		Level:  level,
	})
	return &Logger{inner: inner}
}

// Debug logs debug-level messages
func (l *Logger) Debug(msg string, fields ...interfaces.Field) {
	l.inner.Debug(msg, keyvals(fields)...)
}

// Info logs informational messages
func (l *Logger) Info(msg string, fields ...interfaces.Field) {
	l.inner.Info(msg, keyvals(fields)...)
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, fields ...interfaces.Field) {
	l.inner.Warn(msg, keyvals(fields)...)
}

// Error logs error messages
func (l *Logger) Error(msg string, fields ...interfaces.Field) {
	l.inner.Error(msg, keyvals(fields)...)
}

func keyvals(fields []interfaces.Field) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}
