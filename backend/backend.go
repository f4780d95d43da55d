package backend

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Error reports a failed invocation of an external tool. Stderr output
// is carried verbatim so callers can surface the tool's own diagnosis.
type Error struct {
	Tool    string
	Args    []string
	Stderr  string
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Tool, strings.Join(e.Args, " "), e.Err)
	if e.Timeout {
		msg = fmt.Sprintf("%s %s: timed out", e.Tool, strings.Join(e.Args, " "))
	}
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Runner executes an external tool and returns its combined stderr
// output. The interface exists so tests can substitute a fake for the
// real process spawner.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stderr string, err error)
}

// ExecRunner runs tools as real subprocesses via os/exec. The context
// bounds each invocation; when it expires the process is killed.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

// run invokes the tool through r and wraps any failure in *Error,
// flagging context expiry as a timeout.
func run(ctx context.Context, r Runner, tool string, args ...string) error {
	stderr, err := r.Run(ctx, tool, args...)
	if err == nil {
		return nil
	}
	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
	return &Error{Tool: tool, Args: args, Stderr: stderr, Timeout: timedOut, Err: err}
}
