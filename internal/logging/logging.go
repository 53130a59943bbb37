package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airadio/api/internal/config"
)

// New creates the service logger. Format "console" (or development mode)
// gives human readable output, everything else is JSON on stdout.
func New(cfg config.LogConfig, dev bool) zerolog.Logger {
	return NewWithWriter(cfg, dev, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.LogConfig, dev bool, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if strings.EqualFold(cfg.Format, "console") || dev {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "airadio").
		Logger()
}

// TraceDuration logs start and end of a unit of work at debug level.
// Usage: defer logging.TraceDuration(logger, "assemble")()
func TraceDuration(logger zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Debug().Str("op", name).Msg("start")
	return func() {
		logger.Debug().Str("op", name).Dur("duration", time.Since(start)).Msg("finish")
	}
}

// Redact hides secrets outside development.
func Redact(s string, dev bool) string {
	if dev {
		return s
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-2:]
}
