package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/raphi011/cfmt/internal/log"
)

// waitDelay bounds how long Run waits for output pipes after the process
// was killed, e.g. when a formatter left a child holding stdout open.
const waitDelay = 2 * time.Second

// Spec describes one process invocation.
type Spec struct {
	Argv  []string // program and arguments, used verbatim
	Dir   string   // working directory, empty means the current one
	Stdin []byte   // nil means no stdin
	Env   []string // extra KEY=VALUE entries appended to os.Environ()
}

// Result is what a finished process produced.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Runner executes external processes.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// ExitError is returned when a process ran but exited with a non-zero code.
type ExitError struct {
	Argv     []string
	ExitCode int
	Stderr   string // trimmed
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	return fmt.Sprintf("%s exited with code %d", e.Argv[0], e.ExitCode)
}

// ErrEmptyArgv is returned when Spec.Argv has no program.
var ErrEmptyArgv = errors.New("empty command")

// ExecRunner runs processes with os/exec.
type ExecRunner struct{}

// Run executes spec and waits for it to exit.
// A non-zero exit returns the Result together with an *ExitError.
// If ctx ends first the process is killed and ctx.Err() is returned.
func (ExecRunner) Run(ctx context.Context, spec Spec) (Result, error) {
	if len(spec.Argv) == 0 {
		return Result{}, ErrEmptyArgv
	}

	done := log.FromContext(ctx).Command(spec.Dir, spec.Argv[0], spec.Argv[1:]...)

	c := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...)
	c.Dir = spec.Dir
	c.WaitDelay = waitDelay
	if len(spec.Env) > 0 {
		c.Env = append(os.Environ(), spec.Env...)
	}
	if spec.Stdin != nil {
		c.Stdin = bytes.NewReader(spec.Stdin)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	res := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	done(res.Duration)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{
			Argv:     spec.Argv,
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
		}
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

// Output runs argv and returns its stdout, with stderr in the error if it fails.
func Output(ctx context.Context, dir string, argv ...string) ([]byte, error) {
	res, err := ExecRunner{}.Run(ctx, Spec{Argv: argv, Dir: dir})
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}
