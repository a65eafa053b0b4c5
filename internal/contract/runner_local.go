package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrExecutableNotFound is returned when the program to run cannot be found.
var ErrExecutableNotFound = errors.New("executable not found")

// ProcessError is returned when a program exits with a non-zero status.
// It carries enough context to diagnose the failure without rerunning it.
type ProcessError struct {
	Argv     []string
	Dir      string
	ExitCode int
	Stderr   string
}

// Error implements the error interface.
func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("failed to execute %q in %q (exit status %d)", strings.Join(e.Argv, " "), e.Dir, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// LocalRunner implements the Runner interface by executing programs
// installed on the local machine. No shell is involved.
type LocalRunner struct{}

var _ Runner = &LocalRunner{} // Compile-time check

// NewLocalRunner creates a new instance of the local runner.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

// Run executes argv in cwd and returns its standard output.
func (r *LocalRunner) Run(ctx context.Context, argv []string, cwd string) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("empty command line")
	}
	dir := cwd
	if dir == "" {
		dir = "."
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	Logger.Debugf("%s (in %s)", strings.Join(argv, " "), dir)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	out, err := cmd.Output()

	var execErr *exec.Error
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return string(out), nil
	case errors.As(err, &execErr):
		return "", fmt.Errorf("%w: %s (in %s). Ensure it is installed and available on your PATH", ErrExecutableNotFound, argv[0], dir)
	case errors.As(err, &exitErr):
		return "", &ProcessError{
			Argv:     argv,
			Dir:      dir,
			ExitCode: exitErr.ExitCode(),
			Stderr:   strings.TrimSpace(string(exitErr.Stderr)),
		}
	default:
		return "", fmt.Errorf("failed to execute %q in %q: %w", strings.Join(argv, " "), dir, err)
	}
}
