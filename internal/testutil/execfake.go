// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/danielcregg/aws2023-wp/internal/execx"
)

// FakeResult scripts the outcome of one command line in a FakeRunner.
type FakeResult struct {
	ExitCode  int
	Output    string
	ErrOutput string
	// Err, when set, simulates a command that could not be started at all.
	Err error
}

// FakeRunner is an execx.Runner that replays scripted results and records
// every invocation. Tests assert both on step behavior and on the exact
// commands a step executed, including that a satisfied step executed none.
type FakeRunner struct {
	mu sync.Mutex

	// Results maps a full command line (e.g. "systemctl is-active mariadb")
	// to its scripted outcome. Unscripted commands succeed with empty output.
	Results map[string]FakeResult
	// MissingBinaries lists names LookPath reports as not found.
	MissingBinaries map[string]bool

	calls []string
}

// NewFakeRunner creates a FakeRunner where every command succeeds until
// scripted otherwise.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Results:         map[string]FakeResult{},
		MissingBinaries: map[string]bool{},
	}
}

// Script sets the outcome for the given full command line.
func (f *FakeRunner) Script(cmdline string, res FakeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Results[cmdline] = res
}

// Run implements execx.Runner.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) error {
	res, err := f.Capture(ctx, name, args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &execx.ExitError{Name: name, Args: args, Code: res.ExitCode, Stderr: res.ErrOutput}
	}
	return nil
}

// Capture implements execx.Runner.
func (f *FakeRunner) Capture(_ context.Context, name string, args ...string) (*execx.Result, error) {
	key := commandLine(name, args)

	f.mu.Lock()
	f.calls = append(f.calls, key)
	res, ok := f.Results[key]
	f.mu.Unlock()

	if !ok {
		return &execx.Result{}, nil
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return &execx.Result{ExitCode: res.ExitCode, Output: res.Output, ErrOutput: res.ErrOutput}, nil
}

// LookPath implements execx.Runner.
func (f *FakeRunner) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MissingBinaries[name] {
		return "", fmt.Errorf("%s: executable file not found in $PATH", name)
	}
	return "/usr/bin/" + name, nil
}

// Calls returns every recorded command line in execution order.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many commands were executed.
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Called reports whether any recorded command line starts with prefix.
func (f *FakeRunner) Called(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
