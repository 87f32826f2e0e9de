// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/danielcregg/aws2023-wp/internal/issue"
	"github.com/danielcregg/aws2023-wp/internal/script"
	"github.com/danielcregg/aws2023-wp/pkg/stepfile"
)

// Compile-time interface check
var _ Step = (*CustomStep)(nil)

// CustomStep runs a user-defined step loaded from a step file. Both the
// check and the apply script execute in the embedded shell with the step
// file's directory as the working directory, so relative paths behave the
// same on every host.
type CustomStep struct {
	name    string
	summary string
	check   string
	creates string
	script  string
	engine  *script.Engine
}

// Name returns the step name from the file.
func (s *CustomStep) Name() string { return s.name }

// Summary returns the one-line description shown while the step runs.
func (s *CustomStep) Summary() string {
	if s.summary != "" {
		return s.summary
	}
	return "Run step " + s.name
}

// Check reports whether the step is already satisfied. A creates path that
// exists satisfies the step without running anything. Otherwise the check
// script decides: exit status zero means satisfied. A step with neither is
// never satisfied and applies on every run.
func (s *CustomStep) Check(ctx context.Context) (bool, error) {
	if s.creates != "" {
		if _, err := os.Stat(s.creates); err == nil {
			return true, nil
		}
	}
	if s.check == "" {
		return false, nil
	}

	res, err := s.engine.Capture(ctx, s.name+"#check", s.check)
	if err != nil {
		return false, fmt.Errorf("running check for step %s: %w", s.name, err)
	}
	return res.ExitCode == 0, nil
}

// Apply runs the step's script. A non-zero exit aborts the run, carrying
// the script's stderr so the failure is diagnosable from the log alone.
func (s *CustomStep) Apply(ctx context.Context) error {
	res, err := s.engine.Capture(ctx, s.name, s.script)
	if err != nil {
		return fmt.Errorf("running step %s: %w", s.name, err)
	}
	if res.ExitCode != 0 {
		detail := strings.TrimSpace(res.ErrOutput)
		if detail == "" {
			detail = strings.TrimSpace(res.Output)
		}
		if detail != "" {
			return fmt.Errorf("step %s exited with status %d: %s", s.name, res.ExitCode, detail)
		}
		return fmt.Errorf("step %s exited with status %d", s.name, res.ExitCode)
	}
	return nil
}

// LoadCustomSteps parses the step file at path and builds one step per
// entry, in file order. Script syntax is validated here so a typo surfaces
// before any step runs, not halfway through provisioning.
func LoadCustomSteps(path string) ([]Step, error) {
	file, err := stepfile.Parse(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load step file").
			WithResource(path).
			WithSuggestion("Run wpstack validate to list every problem in the file").
			WithSuggestion("Step names must match [a-z0-9][a-z0-9-]* and be unique").
			Wrap(err).
			BuildError()
	}

	dir := filepath.Dir(path)
	steps := make([]Step, 0, len(file.Steps))
	for _, st := range file.Steps {
		cs, err := newCustomStep(st, dir)
		if err != nil {
			return nil, err
		}
		steps = append(steps, cs)
	}
	return steps, nil
}

func newCustomStep(st stepfile.Step, dir string) (*CustomStep, error) {
	name := st.Name.String()
	if reservedStepName(name) {
		return nil, fmt.Errorf("step name %q is reserved for a built-in step", name)
	}
	if st.Check != "" {
		if err := script.Validate(name+"#check", st.Check); err != nil {
			return nil, err
		}
	}
	if err := script.Validate(name, st.Script); err != nil {
		return nil, err
	}

	return &CustomStep{
		name:    name,
		summary: st.Summary,
		check:   st.Check,
		creates: st.Creates,
		script:  st.Script,
		engine:  script.NewEngine(script.WithDir(dir), script.WithEnv(envPairs(st.Env)...)),
	}, nil
}

// envPairs flattens an env map into sorted KEY=VALUE pairs so the script
// environment is deterministic run to run.
func envPairs(env map[string]string) []string {
	pairs := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		pairs = append(pairs, k+"="+env[k])
	}
	return pairs
}

// reservedStepName reports whether name belongs to a built-in step.
func reservedStepName(name string) bool {
	switch name {
	case "packages", "services", "database", "wordpress", "phpmyadmin", "phpini", "restart-webserver":
		return true
	}
	return false
}
