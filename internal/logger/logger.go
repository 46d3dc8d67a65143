// Package logger provides a simple wrapper around slog for structured logging.
package logger

import (
	"io"
	"log/slog"
	"os"
)

var level = new(slog.LevelVar)

// Logger is the global logger instance.
var Logger = New(os.Stderr)

// New builds a text logger on w that follows the package level.
func New(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetVerbose switches between debug and warning output.
func SetVerbose(verbose bool) {
	if verbose {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(slog.LevelWarn)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
