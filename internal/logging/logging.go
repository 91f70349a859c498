// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options control log level and format.
type Options struct {
	Level  string
	Pretty bool
	Out    io.Writer
}

// Setup installs the global logger. Pretty output goes through a console
// writer with RFC3339 timestamps and caller info; otherwise logs are JSON.
// Logs default to stderr so stdout stays clean for command output.
func Setup(opts Options) error {
	level := zerolog.InfoLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	zerolog.SetGlobalLevel(level)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	if opts.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Caller().Logger()
		return nil
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}
