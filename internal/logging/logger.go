// Package logging provides the charmbracelet logger used by the command
// line and the listing layer. It is configured from the environment.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

var debugFlag atomic.Bool

// SetDebug forces debug level on every logger created afterwards,
// whatever DISSECT_LOG_LEVEL says.
func SetDebug(on bool) { debugFlag.Store(on) }

// LoggerCloser wraps a logger and provides a Close method for cleanup
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it's closeable
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// ParseLevel maps a DISSECT_LOG_LEVEL value to a level. Unknown values
// mean info.
func ParseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	}
	return log.InfoLevel
}

// NewLoggerWithWriter creates a new logger with the provided writer
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	if IsDebug() {
		lg.SetLevel(log.DebugLevel)
	} else {
		lg.SetLevel(ParseLevel(os.Getenv("DISSECT_LOG_LEVEL")))
	}

	prefix := os.Getenv("DISSECT_LOG_PREFIX")
	if prefix == "" {
		prefix = "dissect "
	}

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		closer: closer,
	}
}

// NewLogger creates a new logger based on environment variables
// DISSECT_LOG_LEVEL: debug, info, warn, error (default: info)
// DISSECT_LOG_PREFIX: prefix for log messages (default: "dissect ")
// DISSECT_LOG_TO_FILE: when set to "1", logs to a timestamped file instead of stderr
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	if os.Getenv("DISSECT_LOG_TO_FILE") == "1" {
		timestamp := time.Now().Format("20060102-150405")
		logFile := fmt.Sprintf("dissect-%s-debug.log", timestamp)

		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			output = f
		}
		// If file creation fails, fall back to stderr
	}

	return NewLoggerWithWriter(output)
}

// IsDebug returns true if debug logging is enabled
func IsDebug() bool {
	return debugFlag.Load() || os.Getenv("DISSECT_LOG_LEVEL") == "debug"
}
