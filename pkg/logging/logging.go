// Package logging provides structured logging for insertsize using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Format is the log output encoding.
type Format string

// Log formats. The empty Format picks human output when stderr is a terminal.
const (
	FormatJSON  Format = "json"
	FormatHuman Format = "human"
)

// ParseFormat validates a log format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatJSON, FormatHuman:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q: must be json or human", s)
	}
}

// prettyMode is set by InitWriter and read by the event builders.
var prettyMode bool

// New builds a logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level, human bool) zerolog.Logger {
	if human {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminalWriter(w),
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// InitWriter builds the run logger on w and sets pretty mode to match. An
// empty format resolves to human when w is a terminal and JSON otherwise.
func InitWriter(w io.Writer, level zerolog.Level, format Format) zerolog.Logger {
	human := format == FormatHuman || (format == "" && isTerminalWriter(w))
	prettyMode = human
	return New(w, level, human)
}

// Level maps the verbosity switches to a zerolog level. Quiet wins.
func Level(verbose, quiet bool) zerolog.Level {
	switch {
	case quiet:
		return zerolog.WarnLevel
	case verbose:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithPhase returns l with the phase field set.
func WithPhase(l zerolog.Logger, phase string) zerolog.Logger {
	return l.With().Str("phase", phase).Logger()
}

// IsPrettyMode reports whether events carry human-readable companion fields.
func IsPrettyMode() bool {
	return prettyMode
}

// SetPrettyMode overrides the companion-field switch.
func SetPrettyMode(on bool) {
	prettyMode = on
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && IsTerminal(f.Fd())
}
