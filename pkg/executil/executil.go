// Package executil runs external CLIs and captures their output.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	osexec "k8s.io/utils/exec"
)

// DefaultTimeout bounds a single external command invocation.
var DefaultTimeout = 5 * time.Minute

// Command is one external CLI invocation.
type Command struct {
	Path string
	Args []string
}

// String returns the shell-quoted command line.
func (c Command) String() string {
	return shellquote.Join(append([]string{c.Path}, c.Args...)...)
}

// Result is what one finished command produced. A non-zero ExitCode is a
// normal result, not an error of the runner.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// LaunchError means the executable could not be located or spawned at all.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q (%v)", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Runner invokes external commands synchronously.
type Runner interface {
	// Run blocks until the command exits, times out, or ctx is canceled.
	// The returned error is non-nil only for launch failures, timeouts, and
	// cancellation; a tool that ran and exited non-zero yields a nil error
	// with Result.ExitCode set.
	Run(ctx context.Context, cmd Command) (Result, error)
}

type runner struct {
	lg      *zap.Logger
	exc     osexec.Interface
	timeout time.Duration
}

// New creates a Runner with a per-command timeout. A non-positive timeout
// falls back to DefaultTimeout.
func New(lg *zap.Logger, timeout time.Duration) Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &runner{lg: lg, exc: osexec.New(), timeout: timeout}
}

func (r *runner) Run(ctx context.Context, cmd Command) (Result, error) {
	p, err := r.exc.LookPath(cmd.Path)
	if err != nil {
		return Result{}, &LaunchError{Path: cmd.Path, Err: err}
	}

	r.lg.Debug("running command", zap.String("cmd", cmd.String()))
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	c := r.exc.CommandContext(cctx, p, cmd.Args...)
	var stdout, stderr bytes.Buffer
	c.SetStdout(&stdout)
	c.SetStderr(&stderr)

	runErr := c.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if runErr == nil {
		return res, nil
	}

	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if cctx.Err() == context.DeadlineExceeded {
		return res, fmt.Errorf("command %q timed out after %v", cmd.String(), r.timeout)
	}

	var exitErr osexec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitStatus()
		return res, nil
	}
	return res, &LaunchError{Path: cmd.Path, Err: runErr}
}
