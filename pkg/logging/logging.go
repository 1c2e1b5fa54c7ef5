// Package logging builds the zerolog loggers used across drivelog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel  = "DRIVELOG_LOG_LEVEL"
	EnvLogFormat = "DRIVELOG_LOG_FORMAT"
)

// Options selects the level and output format of a logger
type Options struct {
	Level  string // trace, debug, info, warn, error, disabled
	Format string // console or json
	Output io.Writer
}

// New returns a logger tagged with app. Environment variables override opts.
func New(app string, opts Options) zerolog.Logger {
	applyEnvOverrides(&opts)

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.ToLower(strings.TrimSpace(opts.Format)) != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	level, _ := ParseLevel(opts.Level)
	return zerolog.New(out).Level(level).With().Timestamp().Str("app", app).Logger()
}

// ParseLevel maps a level name to a zerolog level. Unknown names fall back to info.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func applyEnvOverrides(opts *Options) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		if _, ok := ParseLevel(v); ok {
			opts.Level = v
		}
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		opts.Format = v
	}
}
