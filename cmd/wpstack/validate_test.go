// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/danielcregg/aws2023-wp/internal/config"
	"github.com/danielcregg/aws2023-wp/pkg/stepfile"
)

func writeTestStepFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wpsteps.cue")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing step file fixture: %v", err)
	}
	return path
}

func TestResolveStepFilePath(t *testing.T) {
	// Not parallel: subtests change the working directory.

	t.Run("argument wins", func(t *testing.T) {
		cfg := &config.Config{StepFile: "/etc/wpstack/wpsteps.cue"}
		if got := resolveStepFilePath([]string{"custom.cue"}, cfg); got != "custom.cue" {
			t.Errorf("resolveStepFilePath() = %q, want %q", got, "custom.cue")
		}
	})

	t.Run("configured path", func(t *testing.T) {
		cfg := &config.Config{StepFile: "/etc/wpstack/wpsteps.cue"}
		if got := resolveStepFilePath(nil, cfg); got != "/etc/wpstack/wpsteps.cue" {
			t.Errorf("resolveStepFilePath() = %q, want the configured path", got)
		}
	})

	t.Run("working directory discovery", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, stepfile.DefaultFileName), []byte("steps: []\n"), 0o644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}

		origWD, err := os.Getwd()
		if err != nil {
			t.Fatalf("Getwd() failed: %v", err)
		}
		if err := os.Chdir(dir); err != nil {
			t.Fatalf("Chdir() failed: %v", err)
		}
		t.Cleanup(func() {
			if err := os.Chdir(origWD); err != nil {
				t.Errorf("restoring working directory: %v", err)
			}
		})

		if got := resolveStepFilePath(nil, &config.Config{}); got != stepfile.DefaultFileName {
			t.Errorf("resolveStepFilePath() = %q, want %q", got, stepfile.DefaultFileName)
		}
	})

	t.Run("nothing to validate", func(t *testing.T) {
		dir := t.TempDir()

		origWD, err := os.Getwd()
		if err != nil {
			t.Fatalf("Getwd() failed: %v", err)
		}
		if err := os.Chdir(dir); err != nil {
			t.Fatalf("Chdir() failed: %v", err)
		}
		t.Cleanup(func() {
			if err := os.Chdir(origWD); err != nil {
				t.Errorf("restoring working directory: %v", err)
			}
		})

		if got := resolveStepFilePath(nil, nil); got != "" {
			t.Errorf("resolveStepFilePath() = %q, want empty", got)
		}
	})
}

func TestValidateStepFile(t *testing.T) {
	t.Parallel()

	t.Run("valid file lists step names", func(t *testing.T) {
		t.Parallel()

		path := writeTestStepFile(t, `
steps: [
	{
		name:    "seed-content"
		summary: "Seed demo content"
		script:  "true"
	},
	{
		name:   "warm-cache"
		check:  "test -f warmed"
		script: "touch warmed"
	},
]
`)

		var stdout, stderr bytes.Buffer
		if !validateStepFile(&stdout, &stderr, path) {
			t.Fatalf("validateStepFile() = false, want true; stderr:\n%s", stderr.String())
		}

		out := stdout.String()
		for _, token := range []string{"2 step(s)", "seed-content", "warm-cache"} {
			if !strings.Contains(out, token) {
				t.Errorf("output missing %q:\n%s", token, out)
			}
		}
	})

	t.Run("empty file is valid", func(t *testing.T) {
		t.Parallel()

		path := writeTestStepFile(t, "steps: []\n")

		var stdout, stderr bytes.Buffer
		if !validateStepFile(&stdout, &stderr, path) {
			t.Fatalf("validateStepFile() = false, want true; stderr:\n%s", stderr.String())
		}
		if !strings.Contains(stdout.String(), "no steps defined") {
			t.Errorf("output missing the empty-file note:\n%s", stdout.String())
		}
	})

	t.Run("structural problems are enumerated", func(t *testing.T) {
		t.Parallel()

		// Duplicate name and a blank script, reported together.
		path := writeTestStepFile(t, `
steps: [
	{
		name:   "seed"
		script: "true"
	},
	{
		name:   "seed"
		script: "   "
	},
]
`)

		var stdout, stderr bytes.Buffer
		if validateStepFile(&stdout, &stderr, path) {
			t.Fatal("validateStepFile() = true, want false")
		}

		out := stderr.String()
		for _, token := range []string{"is invalid", "1. ", "2. ", "duplicate name", "must not be blank"} {
			if !strings.Contains(out, token) {
				t.Errorf("stderr missing %q:\n%s", token, out)
			}
		}
	})

	t.Run("reserved step name is rejected", func(t *testing.T) {
		t.Parallel()

		path := writeTestStepFile(t, `
steps: [
	{
		name:   "wordpress"
		script: "true"
	},
]
`)

		var stdout, stderr bytes.Buffer
		if validateStepFile(&stdout, &stderr, path) {
			t.Fatal("validateStepFile() = true, want false")
		}
		if !strings.Contains(stderr.String(), "reserved") {
			t.Errorf("stderr missing the reserved name message:\n%s", stderr.String())
		}
	})

	t.Run("cue syntax error is reported once", func(t *testing.T) {
		t.Parallel()

		path := writeTestStepFile(t, "steps: [ { name: \"broken\"\n")

		var stdout, stderr bytes.Buffer
		if validateStepFile(&stdout, &stderr, path) {
			t.Fatal("validateStepFile() = true, want false")
		}
		if !strings.Contains(stderr.String(), "is invalid") {
			t.Errorf("stderr missing the invalid banner:\n%s", stderr.String())
		}
	})
}

func TestRunValidate(t *testing.T) {
	// Not parallel: config.Load caches globally.

	t.Run("defaults with no step file", func(t *testing.T) {
		withTestConfig(t)

		cmd := &cobra.Command{}
		var stdout, stderr bytes.Buffer
		cmd.SetOut(&stdout)
		cmd.SetErr(&stderr)

		if err := runValidate(cmd, nil); err != nil {
			t.Fatalf("runValidate() error = %v, want nil; stderr:\n%s", err, stderr.String())
		}

		out := stdout.String()
		for _, token := range []string{
			"Configuration is valid",
			"No custom steps file, nothing more to check",
			"Everything checks out",
		} {
			if !strings.Contains(out, token) {
				t.Errorf("output missing %q:\n%s", token, out)
			}
		}
	})

	t.Run("broken step file fails the run", func(t *testing.T) {
		withTestConfig(t)

		path := writeTestStepFile(t, `
steps: [
	{
		name:   "database"
		script: "true"
	},
]
`)

		cmd := &cobra.Command{}
		var stdout, stderr bytes.Buffer
		cmd.SetOut(&stdout)
		cmd.SetErr(&stderr)

		err := runValidate(cmd, []string{path})

		var exitErr *ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("runValidate() error = %v, want *ExitError", err)
		}
		if exitErr.Code != 1 {
			t.Errorf("exit code = %d, want 1", exitErr.Code)
		}
		if !strings.Contains(stderr.String(), "Validation failed") {
			t.Errorf("stderr missing the failure banner:\n%s", stderr.String())
		}
	})
}
