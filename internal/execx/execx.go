// SPDX-License-Identifier: MPL-2.0

// Package execx wraps os/exec behind a small Runner interface. Steps that
// shell out to system tools (systemctl, package managers) go through a
// Runner so tests can substitute a scripted fake and assert on the exact
// commands a step would have executed.
package execx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Result holds the outcome of a finished command.
type Result struct {
	// ExitCode is the command's exit status. Zero means success.
	ExitCode int
	// Output is the captured stdout.
	Output string
	// ErrOutput is the captured stderr.
	ErrOutput string
}

// Runner executes external commands.
type Runner interface {
	// Run executes name with args and fails on any non-zero exit.
	Run(ctx context.Context, name string, args ...string) error
	// Capture executes name with args and returns the captured result.
	// A non-zero exit is reported via Result.ExitCode, not via the error;
	// the error is reserved for commands that could not be started at all.
	Capture(ctx context.Context, name string, args ...string) (*Result, error)
	// LookPath resolves name against PATH.
	LookPath(name string) (string, error)
}

// OSRunner is the Runner backed by the host operating system.
type OSRunner struct {
	// Dir, when set, is the working directory for every command.
	Dir string
	// Env entries are appended to the parent process environment.
	Env []string
}

// NewOSRunner creates a Runner that executes commands on the host.
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

// Run executes name with args and fails on any non-zero exit. The error
// carries the exit code and a stderr excerpt for display.
func (r *OSRunner) Run(ctx context.Context, name string, args ...string) error {
	res, err := r.Capture(ctx, name, args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &ExitError{Name: name, Args: args, Code: res.ExitCode, Stderr: res.ErrOutput}
	}
	return nil
}

// Capture executes name with args and captures stdout/stderr.
func (r *OSRunner) Capture(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{
		Output:    stdout.String(),
		ErrOutput: stderr.String(),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("failed to execute %s: %w", name, err)
	}

	return res, nil
}

// LookPath resolves name against PATH.
func (r *OSRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	// Name is the executed command.
	Name string
	// Args are the command arguments.
	Args []string
	// Code is the non-zero exit status.
	Code int
	// Stderr is the captured error output, possibly empty.
	Stderr string
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command(), e.Code)
	if tail := stderrTail(e.Stderr, 3); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// Command returns the full command line for display.
func (e *ExitError) Command() string {
	if len(e.Args) == 0 {
		return e.Name
	}
	return e.Name + " " + strings.Join(e.Args, " ")
}

// stderrTail returns the last n non-empty lines of s joined with "; ".
func stderrTail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	var kept []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "; ")
}
