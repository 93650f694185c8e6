// Package logx provides LogLens's process-wide structured logger.
//
// By default logs are written to stderr. The stdio MCP transport must
// never write to stdout (spec.md §4.13); rather than special-case every
// call site, Suppress swaps the global logger for a discarding one before
// the stdio server starts, following the default-silent-unless-configured
// convention used for network loggers in this ecosystem.
package logx

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
)

// Log returns the current global logger.
func Log() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &logger
}

// SetLevel adjusts the global logger's minimum level.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Level(level)
}

// Suppress replaces the global logger with one that discards all output.
// Call this before starting the stdio MCP transport.
func Suppress() {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(io.Discard)
}

// SetJSON switches the global logger to line-delimited JSON output on
// stderr, useful for the dashboard/scheduler processes where logs are
// typically shipped rather than read by a human in a terminal.
func SetJSON() {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
