// Package logging provides the process-wide structured logger and the
// SIMULITH_LOG_MODE writer selection.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Global structured logger. Initialized with a reasonable text handler
// pointed at the mode-selected writer.
var logger atomic.Pointer[slog.Logger]

func init() {
	l := slog.New(slog.NewTextHandler(ModeWriter(), &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Store(l)
}

// L returns the current global logger.
func L() *slog.Logger { return logger.Load() }

// Set replaces the global logger.
func Set(l *slog.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

// New creates a new logger with given level, format ("text" or "json"), and optional writer.
// A nil writer defaults to the SIMULITH_LOG_MODE writer.
func New(format string, level slog.Leveler, w io.Writer) *slog.Logger {
	if w == nil {
		w = ModeWriter()
	}
	var h slog.Handler
	switch format {
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(h)
}

const logFilePath = "/tmp/simulith.log"

var (
	modeOnce   sync.Once
	modeWriter io.Writer
	logFile    *os.File
)

// ModeWriter returns the process-wide writer selected by SIMULITH_LOG_MODE
// (stdout|file|both|none, default stdout). The selection and any file open
// happen once, on first use, and the file (if opened) is never closed except
// at process exit.
func ModeWriter() io.Writer {
	modeOnce.Do(func() {
		mode := strings.ToLower(strings.TrimSpace(os.Getenv("SIMULITH_LOG_MODE")))
		switch mode {
		case "file":
			modeWriter = openLogFile()
		case "both":
			modeWriter = io.MultiWriter(os.Stdout, openLogFile())
		case "none":
			modeWriter = io.Discard
		case "stdout", "":
			modeWriter = os.Stdout
		default:
			modeWriter = os.Stdout
		}
	})
	return modeWriter
}

func openLogFile() io.Writer {
	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: open %s: %v (falling back to stdout)\n", logFilePath, err)
		return os.Stdout
	}
	logFile = f
	return f
}
