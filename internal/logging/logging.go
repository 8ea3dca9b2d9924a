// Package logging sets up the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup writes human readable lines to a terminal and JSON otherwise, and
// installs the result as log.Logger.
func Setup(f *os.File, debug bool) zerolog.Logger {
	l := New(f, isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), debug)
	log.Logger = l
	return l
}

func New(w io.Writer, console, debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
