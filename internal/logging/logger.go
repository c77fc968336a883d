// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

// Package logging provides centralized zerolog-based logging for Reviewscope.
//
// The HTTP server and the precompute CLI share one global logger configured at
// startup. Components derive child loggers with a "component" field and pass
// them by value.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Msg("Server starting")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Dashboard query failed")
//
// Always terminate log chains with .Msg() or .Send().
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error, fatal, panic.
	Level string

	// Format is json or console. The precompute CLI is usually run with console.
	Format string

	// Caller adds file:line to every entry.
	Caller bool

	// Timestamp enables timestamps in log output.
	Timestamp bool

	// App, when set, is stamped on every entry as "app" ("server", "precompute").
	App string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the configuration used before Init is called.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // logging must work before Init
func init() {
	initLogger(DefaultConfig())
}

// Init reconfigures the global logger. Safe to call more than once.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

// initLogger must be called with mu held.
func initLogger(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	lc := zerolog.New(out).With()
	if cfg.Timestamp {
		lc = lc.Timestamp()
	}
	if cfg.Caller {
		lc = lc.Caller()
	}
	if cfg.App != "" {
		lc = lc.Str("app", cfg.App)
	}
	log = lc.Logger()
}

// parseLevel accepts zerolog's level names plus "warning". Empty or unknown
// names mean info.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func current() *zerolog.Logger {
	l := Logger()
	return &l
}

// Debug starts a debug entry on the global logger.
func Debug() *zerolog.Event { return current().Debug() }

// Info starts an info entry on the global logger.
func Info() *zerolog.Event { return current().Info() }

// Warn starts a warn entry on the global logger.
func Warn() *zerolog.Event { return current().Warn() }

// Error starts an error entry on the global logger.
func Error() *zerolog.Event { return current().Error() }

// Fatal starts a fatal entry; os.Exit(1) follows Msg.
func Fatal() *zerolog.Event { return current().Fatal() }

// Err starts an error entry carrying err, or an info entry when err is nil.
func Err(err error) *zerolog.Event { return current().Err(err) }

// WithComponent returns a child of the global logger tagged with component.
// Components keep the returned logger and pass it by value.
//
//	logger := logging.WithComponent("dashboard")
func WithComponent(component string) zerolog.Logger {
	return current().With().Str("component", component).Logger()
}

// NewTestLogger creates a logger that writes to w, for tests.
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
