// Package logging configures zerolog for the pagecache binaries.
//
// Library packages never log through the global logger; they take a
// zerolog.Logger option and default to zerolog.Nop(). Binaries call Setup
// once and hand out component loggers with NewLogger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration.
type Config struct {
	// Level is one of trace, debug, info, warn, error. Unknown values mean info.
	Level string `mapstructure:"level"`

	// Pretty switches from JSON to console output.
	Pretty bool `mapstructure:"pretty"`

	// Output defaults to os.Stderr.
	Output io.Writer `mapstructure:"-"`
}

// DefaultConfig returns JSON logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Output: os.Stderr,
	}
}

// Setup builds the process logger, installs it as the zerolog global and
// returns it.
func Setup(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	log.Logger = logger
	return logger
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger returns the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Field names shared by the pagecache components:
//
//   - component: package or subsystem emitting the event
//   - key, prefix: serialized cache keys
//   - query: collection key a paging.Query is bound to
//   - start, length: requested range
//   - page, page_count: engine page state
//   - entries: number of cache entries touched
