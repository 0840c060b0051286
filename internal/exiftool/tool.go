package exiftool

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"
)

// DefaultTimeout bounds a single tool invocation.
const DefaultTimeout = 30 * time.Second

// Observer records tool invocation metrics. The metrics package provides the
// implementation.
type Observer interface {
	// ObserveInvocation records one call. operation is "probe", "extract"
	// or "copy_orientation".
	ObserveInvocation(operation string, durationSeconds float64, err error)
}

// Tracker receives every temporary file the tool creates so the caller can
// remove it later.
type Tracker interface {
	Register(path string)
}

// Options configures a Tool.
type Options struct {
	// Timeout bounds each invocation. Zero means DefaultTimeout; a negative
	// value disables the bound.
	Timeout time.Duration
	// TempDir receives extracted artifacts. Defaults to os.TempDir().
	TempDir string
	// Observer is optional.
	Observer Observer
}

// Tool runs probe and extraction commands through a Runner.
type Tool struct {
	runner   Runner
	timeout  time.Duration
	tempDir  string
	observer Observer
}

// New creates a Tool.
func New(runner Runner, opts Options) *Tool {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Tool{
		runner:   runner,
		timeout:  timeout,
		tempDir:  tempDir,
		observer: opts.Observer,
	}
}

// Command returns the command words the tool runs, or nil when the runner
// does not spawn a process.
func (t *Tool) Command() []string {
	if r, ok := t.runner.(*ExecRunner); ok {
		return r.Command()
	}
	return nil
}

// run executes one bounded invocation and records it.
func (t *Tool) run(ctx context.Context, operation string, args []string, stdout io.Writer) error {
	if t.runner == nil {
		return ErrToolNotFound
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	err := t.runner.Run(ctx, args, stdout)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if t.observer != nil {
		t.observer.ObserveInvocation(operation, time.Since(start).Seconds(), err)
	}
	return err
}

// absPath returns an absolute, cleaned form of path. Absolute paths always
// start with a separator, so the tool cannot mistake them for options.
func absPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	return filepath.Abs(path)
}
