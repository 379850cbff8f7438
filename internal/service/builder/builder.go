package builder

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Options are inputs accepted by the build step.
type Options struct {
	// Tool is the compiler command to invoke, cargo by default.
	Tool string
	// Args are passed to the tool verbatim.
	Args []string
	// Dir is the working directory of the invocation.
	Dir string
	// Timeout bounds the run; zero means no limit beyond the caller's context.
	Timeout time.Duration
}

// Error describes a build tool run that finished with a non-zero exit status.
type Error struct {
	// Tool is the command that was invoked.
	Tool string
	// ExitCode is the status reported by the tool, or -1 if it was killed.
	ExitCode int
	// Output is the combined stdout and stderr of the failed run.
	Output string
}

// Error implements the error interface; the output is deliberately left out
// of the message and surfaced through logging instead.
func (e *Error) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
}

var (
	// ErrToolNotFound is returned when the build tool is missing from PATH.
	ErrToolNotFound = errors.New("build tool not found")
	// errToolRequired is returned when no build tool was configured.
	errToolRequired = errors.New("build tool must be provided")
)

// Build runs the configured build tool and fails unless it exits cleanly.
// The combined output is returned for logging in both outcomes.
func Build(ctx context.Context, opts *Options) (string, error) {
	if opts == nil || opts.Tool == "" {
		return "", errToolRequired
	}

	if _, err := exec.LookPath(opts.Tool); err != nil {
		return "", fmt.Errorf("%w: %s (is it installed and on PATH?)", ErrToolNotFound, opts.Tool)
	}

	runCtx := ctx

	if opts.Timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, opts.Tool, opts.Args...)
	cmd.Dir = opts.Dir

	output, err := cmd.CombinedOutput()
	if err == nil {
		return string(output), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(output), &Error{
			Tool:     opts.Tool,
			ExitCode: exitErr.ExitCode(),
			Output:   string(output),
		}
	}

	return string(output), fmt.Errorf("run %s: %w", opts.Tool, err)
}
