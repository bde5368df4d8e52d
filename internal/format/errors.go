package format

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raphi011/cfmt/internal/artifact"
	"github.com/raphi011/cfmt/internal/buffer"
)

// ErrBusy is returned when the same file is already being formatted.
var ErrBusy = errors.New("already formatting this file")

// TempFileError is an I/O failure on the temporary file.
type TempFileError = artifact.Error

// ConfigError reports a missing or malformed formatter command.
type ConfigError struct {
	Language string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Language == "" {
		return e.Err.Error()
	}
	return e.Language + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// CommandError reports a formatter that could not be started or exited
// with a non-zero code.
type CommandError struct {
	Argv     []string
	ExitCode int    // -1 if the process never ran
	Stderr   string // trimmed
	Err      error  // spawn failure or other cause, nil for plain non-zero exits

	// Position is where the formatter reported the problem, if its
	// message contained one.
	Position buffer.Cursor
}

func (e *CommandError) Error() string {
	prog := e.Argv[0]
	switch {
	case e.ExitCode < 0 && e.Err != nil:
		return fmt.Sprintf("run %s: %v", prog, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", prog, e.Err)
	case e.Stderr != "":
		return fmt.Sprintf("%s failed (exit %d): %s", prog, e.ExitCode, e.Stderr)
	default:
		return fmt.Sprintf("%s failed (exit %d)", prog, e.ExitCode)
	}
}

func (e *CommandError) Unwrap() error { return e.Err }

// TimeoutError reports a formatter that was killed for running too long.
type TimeoutError struct {
	Argv    []string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Argv[0], e.Timeout)
}

// Is lets errors.Is(err, context.DeadlineExceeded) match a timeout.
func (e *TimeoutError) Is(target error) bool {
	return target == context.DeadlineExceeded
}
