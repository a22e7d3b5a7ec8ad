// Package logger builds the service's zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

// New returns a JSON logger at info level writing to stdout.
// Use .Stack() on error events to attach a stack trace.
func New(serviceName string) zerolog.Logger {
	return NewWithOptions(serviceName, "info", "json")
}

// NewWithOptions returns a stdout logger with the given level ("debug",
// "info", ...) and format ("json" or "console"). Unknown levels become info.
func NewWithOptions(serviceName, level, format string) zerolog.Logger {
	return build(os.Stdout, serviceName, level, format)
}

func build(out io.Writer, serviceName, level, format string) zerolog.Logger {
	// Errors from the standard library carry no stack; capture one at the
	// log site so .Stack() always produces a field.
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}

	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}
	}
	return zerolog.New(out).Level(parseLevel(level)).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
