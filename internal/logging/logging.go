// Package logging configures the global zerolog logger for both
// binaries and exposes the active writer for the HTTP request logger.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cardroom/internal/config"
)

var out io.Writer = os.Stdout

func Init(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out = os.Stdout
	if cfg.File != "" {
		if w, err := newCapWriter(cfg.File, cfg.MaxMB); err == nil {
			out = w
		}
	}
	writer := out
	if cfg.Pretty {
		writer = zerolog.ConsoleWriter{Out: out}
	}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
}

// Writer returns the destination Init selected, for loggers that
// bypass zerolog (the httplog middleware).
func Writer() io.Writer {
	return out
}
