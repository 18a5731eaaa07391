// Package logger implements a logging adapter using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ziplock/relkit/internal/core/ports"
)

// Logger implements ports.Logger using log/slog.
type Logger struct {
	mu     sync.RWMutex
	logger *slog.Logger
	w      io.Writer
	level  slog.Level
}

var _ ports.Logger = (*Logger)(nil)

// New creates a new Logger writing human-readable text to stderr.
func New(verbose bool) *Logger {
	l := &Logger{w: os.Stderr, level: levelFor(verbose)}
	l.rebuild()
	return l
}

// SetVerbose switches debug logging on or off (the --verbose behavior).
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = levelFor(verbose)
	l.rebuild()
}

// SetOutput replaces the logger's output destination. Used by tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w = w
	l.rebuild()
}

// rebuild swaps the handler. Callers hold the write lock.
func (l *Logger) rebuild() {
	l.logger = slog.New(slog.NewTextHandler(l.w, &slog.HandlerOptions{Level: l.level}))
}

func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Debug logs a debug message, visible only in verbose mode.
func (l *Logger) Debug(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs an error.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Error("operation failed", "error", err)
}
