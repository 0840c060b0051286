package exiftool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"camera-raw-previews/internal/logging"

	"github.com/kballard/go-shellquote"
)

// Runner executes the tool with the given arguments, streaming its standard
// output to stdout.
type Runner interface {
	Run(ctx context.Context, args []string, stdout io.Writer) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, args []string, stdout io.Writer) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, args []string, stdout io.Writer) error {
	return f(ctx, args, stdout)
}

// ExecRunner spawns the located command as a child process.
type ExecRunner struct {
	command []string
}

// NewExecRunner creates a runner for command, as returned by Locate. The
// first word is the executable; any remaining words (for example the script
// path when running through perl) precede the per-call arguments.
func NewExecRunner(command []string) *ExecRunner {
	return &ExecRunner{command: append([]string(nil), command...)}
}

// Command returns the command words the runner executes.
func (r *ExecRunner) Command() []string {
	return append([]string(nil), r.command...)
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(r.command) == 0 {
		return ErrToolNotFound
	}

	argv := make([]string, 0, len(r.command)-1+len(args))
	argv = append(argv, r.command[1:]...)
	argv = append(argv, args...)

	if logging.IsDebugEnabled() {
		logging.Debug("exiftool: %s", shellquote.Join(append([]string{r.command[0]}, argv...)...))
	}

	cmd := exec.CommandContext(ctx, r.command[0], argv...)
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("exiftool interrupted: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The process never started.
			return fmt.Errorf("%w: %v", ErrToolNotFound, err)
		}
		return fmt.Errorf("exiftool failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	if stderr.Len() > 0 {
		logging.Debug("exiftool stderr: %s", strings.TrimSpace(stderr.String()))
	}
	return nil
}
