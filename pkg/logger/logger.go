// Package logger builds the service's root zerolog logger. Packages derive
// sub-loggers from it with component/handler fields.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // human-readable console output for development
}

// New creates the root logger writing to stdout
func New(cfg Config) zerolog.Logger {
	return build(cfg, os.Stdout)
}

func build(cfg Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}
	}

	// Level is set on the logger itself rather than globally so quiet
	// test loggers can coexist with a verbose root
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "riskcalc").
		Logger()
}
