// SPDX-License-Identifier: MPL-2.0

// Package script runs the embedded POSIX shell used by custom provisioning
// steps. Scripts execute in-process via mvdan.cc/sh, so step authors get
// consistent shell semantics without depending on a system /bin/sh.
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

type (
	// Result holds the captured outcome of a script run.
	Result struct {
		ExitCode  int
		Output    string
		ErrOutput string
	}

	// Engine executes shell scripts with a fixed working directory and
	// environment. Construct with NewEngine.
	Engine struct {
		dir string
		env []string // extra KEY=VALUE pairs, appended after os.Environ()
	}

	// EngineOption configures an Engine during construction.
	EngineOption func(*Engine)

	// ExitError reports a script that ran to completion with a non-zero
	// exit status.
	ExitError struct {
		Name string // Script name as shown in parse and error messages
		Code int    // Exit status
	}
)

func (e *ExitError) Error() string {
	return fmt.Sprintf("script %s: exit status %d", e.Name, e.Code)
}

// WithDir sets the working directory scripts run in.
func WithDir(dir string) EngineOption {
	return func(e *Engine) {
		e.dir = dir
	}
}

// WithEnv appends extra KEY=VALUE pairs to the inherited environment.
// Later values take precedence over inherited ones.
func WithEnv(vars ...string) EngineOption {
	return func(e *Engine) {
		e.env = append(e.env, vars...)
	}
}

// NewEngine creates an Engine. Without options, scripts run in the current
// directory with the process environment.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate parses src and reports syntax errors without executing anything.
// Used to front-load script errors before a provisioning run starts.
func Validate(name, src string) error {
	if _, err := syntax.NewParser().Parse(strings.NewReader(src), name); err != nil {
		return fmt.Errorf("parsing script %s: %w", name, err)
	}
	return nil
}

// Run executes src with stdout and stderr streamed to the given writers.
// A non-zero exit status is returned as an *ExitError.
func (e *Engine) Run(ctx context.Context, name, src string, stdout, stderr io.Writer) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(src), name)
	if err != nil {
		return fmt.Errorf("parsing script %s: %w", name, err)
	}

	runner, err := interp.New(
		interp.Dir(e.dir),
		interp.Env(expand.ListEnviron(e.environ()...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return fmt.Errorf("creating interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &ExitError{Name: name, Code: int(exitStatus)}
		}
		return fmt.Errorf("running script %s: %w", name, err)
	}
	return nil
}

// Capture executes src and captures its output. A script that runs to
// completion with a non-zero status is not an error here: the status lands
// in Result.ExitCode so callers can treat it as a probe answer. Start and
// interpreter failures still return an error.
func (e *Engine) Capture(ctx context.Context, name, src string) (*Result, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("parsing script %s: %w", name, err)
	}

	var stdout, stderr bytes.Buffer
	runner, err := interp.New(
		interp.Dir(e.dir),
		interp.Env(expand.ListEnviron(e.environ()...)),
		interp.StdIO(nil, &stdout, &stderr),
	)
	if err != nil {
		return nil, fmt.Errorf("creating interpreter: %w", err)
	}

	res := &Result{}
	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if !errors.As(err, &exitStatus) {
			return nil, fmt.Errorf("running script %s: %w", name, err)
		}
		res.ExitCode = int(exitStatus)
	}

	res.Output = stdout.String()
	res.ErrOutput = stderr.String()
	return res, nil
}

func (e *Engine) environ() []string {
	return append(os.Environ(), e.env...)
}
