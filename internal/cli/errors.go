package cli

import (
	"errors"
	"flag"
	"fmt"

	"github.com/eunmann/insertsize/internal/config"
	"github.com/eunmann/insertsize/pkg/insertsize"
)

// Process exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// UsageError reports a problem with how the command was invoked.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

func usageError(err error) error {
	return &UsageError{Err: err}
}

func usageErrorf(format string, a ...any) error {
	return &UsageError{Err: fmt.Errorf(format, a...)}
}

// IsUsage reports whether err is a validation failure rather than a failure
// of the computation itself.
func IsUsage(err error) bool {
	var u *UsageError
	return errors.As(err, &u) ||
		errors.Is(err, config.ErrInvalid) ||
		insertsize.KindOf(err) == insertsize.InvalidParameter
}

// ExitCode maps an error returned by Run to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return ExitOK
	case IsUsage(err):
		return ExitUsage
	default:
		return ExitFailure
	}
}
