// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielcregg/aws2023-wp/internal/config"
	"github.com/danielcregg/aws2023-wp/internal/provision"
	"github.com/danielcregg/aws2023-wp/pkg/stepfile"
)

var validateCmd = &cobra.Command{
	Use:   "validate [step-file]",
	Short: "Validate the configuration and custom steps file",
	Long: `Validate the configuration and custom steps file without touching
the system.

The configuration is loaded exactly as 'up' would load it, including
environment overrides. The step file is checked against its schema,
structural rules (unique names, non-blank scripts), reserved step
names, and the shell syntax of every script. Structural problems are
reported all at once rather than one per run.

Without an argument, the configured step file is validated, falling
back to wpsteps.cue in the working directory when none is configured.

Examples:
  wpstack validate                  Validate config and discovered step file
  wpstack validate ./wpsteps.cue    Validate a specific step file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	fmt.Fprintln(stdout, TitleStyle.Render("Validation"))
	fmt.Fprintln(stdout)

	ok := true

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "%s Configuration is invalid\n", errorIcon)
		fmt.Fprintf(stderr, "  %s\n", formatErrorForDisplay(err, verbose))
		ok = false
	} else {
		fmt.Fprintf(stdout, "%s Configuration is valid %s\n",
			successIcon, SubtitleStyle.Render("("+configSource()+")"))
	}

	if path := resolveStepFilePath(args, cfg); path == "" {
		fmt.Fprintf(stdout, "%s No custom steps file, nothing more to check\n", infoIcon)
	} else {
		ok = validateStepFile(stdout, stderr, path) && ok
	}

	fmt.Fprintln(stdout)
	if !ok {
		fmt.Fprintf(stderr, "%s Validation failed\n", errorIcon)
		return &ExitError{Code: 1, Err: errors.New("validation failed")}
	}

	fmt.Fprintf(stdout, "%s Everything checks out\n", successIcon)
	return nil
}

// resolveStepFilePath picks the step file to validate: the argument wins,
// then the configured path, then wpsteps.cue in the working directory.
// Empty means there is nothing to validate.
func resolveStepFilePath(args []string, cfg *config.Config) string {
	if len(args) == 1 {
		return args[0]
	}
	if cfg != nil && cfg.StepFile != "" {
		return cfg.StepFile.String()
	}
	if _, err := os.Stat(stepfile.DefaultFileName); err == nil {
		return stepfile.DefaultFileName
	}
	return ""
}

// validateStepFile checks one step file end to end: CUE schema, structural
// rules, reserved names, and the shell syntax of every script.
func validateStepFile(stdout, stderr io.Writer, path string) bool {
	steps, err := provision.LoadCustomSteps(path)
	if err != nil {
		fmt.Fprintf(stderr, "%s Step file %s is invalid\n", errorIcon, path)

		var ve stepfile.ValidationErrors
		if errors.As(err, &ve) {
			for i, problem := range ve {
				fmt.Fprintf(stderr, "  %d. %s\n", i+1, problem)
			}
		} else {
			fmt.Fprintf(stderr, "  %s\n", formatErrorForDisplay(err, verbose))
		}
		return false
	}

	if len(steps) == 0 {
		fmt.Fprintf(stdout, "%s Step file %s is valid: no steps defined\n", successIcon, path)
		return true
	}

	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name()
	}
	fmt.Fprintf(stdout, "%s Step file %s is valid: %d step(s) %s\n",
		successIcon, path, len(steps), SubtitleStyle.Render("("+strings.Join(names, ", ")+")"))
	return true
}
