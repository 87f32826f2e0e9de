// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/danielcregg/aws2023-wp/internal/config"
	"github.com/danielcregg/aws2023-wp/internal/issue"
	"github.com/danielcregg/aws2023-wp/internal/provision"
	"github.com/danielcregg/aws2023-wp/internal/tui"
)

//nolint:gochecknoglobals // Test seam for the root privilege check.
var effectiveUID = os.Geteuid

var (
	// dryRun previews the run without changing the system.
	dryRun bool

	upCmd = &cobra.Command{
		Use:   "up",
		Short: "Provision the WordPress stack on this host",
		Long: `Provision the WordPress stack on this host.

Steps run in a fixed order: system packages, services, database,
WordPress, phpMyAdmin, PHP tuning, custom steps from the step file,
and finally a web server restart. Each step first checks whether its
work is already done and is skipped when it is, so 'up' can be re-run
after a failure or a config change without redoing anything.

The first failing step aborts the run. Completed steps keep their
changes; the next run resumes at the first unsatisfied step.

Provisioning needs root. The --dry-run preview does not.`,
		RunE: runUp,
	}
)

func init() {
	upCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would change without changing anything")
}

func runUp(cmd *cobra.Command, _ []string) error {
	// Failures past flag parsing are environmental, not usage errors.
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	stderr := cmd.ErrOrStderr()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
		renderIssue(stderr, issue.ConfigLoadFailedId)
		return &ExitError{Code: 1, Err: err}
	}

	if dryRun {
		return runUpPlan(cmd, cfg)
	}

	if effectiveUID() != 0 {
		renderIssue(stderr, issue.RootRequiredId)
		return &ExitError{Code: 1, Err: errors.New("up requires root privileges")}
	}

	runner, err := provision.Assemble(cfg, provision.Deps{
		Logger:  newRunLogger(),
		Spinner: tui.NewSpinner(tui.WithDisabled(noSpinner)),
	})
	if err != nil {
		fmt.Fprintf(stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
		if id := sentinelIssue(err); id != 0 {
			renderIssue(stderr, id)
		}
		return &ExitError{Code: 1, Err: err}
	}

	report, runErr := runner.Run(cmd.Context())
	if runErr != nil {
		failedName := ""
		if failed := report.Failed(); failed != nil {
			failedName = failed.Name
		}
		id, styled := classifyStepError(failedName, runErr, verbose)
		fmt.Fprint(stderr, styled)
		renderIssue(stderr, id)
		return &ExitError{Code: 1, Err: runErr}
	}

	renderRunReport(cmd.OutOrStdout(), report)
	return nil
}

// runUpPlan renders what a run would do without applying anything. It needs
// no root: checks that root would make conclusive come back as unknown.
func runUpPlan(cmd *cobra.Command, cfg *config.Config) error {
	stderr := cmd.ErrOrStderr()

	runner, err := provision.Assemble(cfg, provision.Deps{Logger: newRunLogger()})
	if err != nil {
		fmt.Fprintf(stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
		if id := sentinelIssue(err); id != 0 {
			renderIssue(stderr, id)
		}
		return &ExitError{Code: 1, Err: err}
	}

	report := runner.Plan(cmd.Context())
	renderPlan(cmd.OutOrStdout(), report)
	return nil
}

// renderPlan prints the would-be outcome of every step.
func renderPlan(w io.Writer, report *provision.Report) {
	fmt.Fprintln(w, TitleStyle.Render("Dry Run"))
	fmt.Fprintln(w)

	width := nameColumnWidth(report)
	for _, res := range report.Results {
		switch res.Outcome {
		case provision.OutcomeSkipped:
			fmt.Fprintf(w, "  %s %-*s %s\n", successIcon, width, res.Name, SubtitleStyle.Render("already done"))
		case provision.OutcomePending:
			fmt.Fprintf(w, "  %s %-*s %s\n", pendingIcon, width, res.Name, res.Summary)
		case provision.OutcomeUnknown:
			detail := "state unknown"
			if res.Err != nil {
				detail = "cannot tell: " + res.Err.Error()
			}
			fmt.Fprintf(w, "  %s %-*s %s\n", unknownIcon, width, res.Name, SubtitleStyle.Render(detail))
		}
	}

	fmt.Fprintln(w)
	switch {
	case report.Pending() == 0 && report.Unknown() == 0:
		fmt.Fprintf(w, "%s Nothing to do: every step is already satisfied\n", successIcon)
	case report.Pending() == 0:
		fmt.Fprintf(w, "%s Nothing pending, but some checks were inconclusive\n", unknownIcon)
	default:
		fmt.Fprintf(w, "%s %d step(s) would run, %d already done\n", pendingIcon, report.Pending(), report.Skipped())
	}
}

// renderRunReport prints the per-step summary after a successful run.
func renderRunReport(w io.Writer, report *provision.Report) {
	fmt.Fprintln(w)

	width := nameColumnWidth(report)
	for _, res := range report.Results {
		switch res.Outcome {
		case provision.OutcomeApplied:
			fmt.Fprintf(w, "  %s %-*s %s\n", successIcon, width, res.Name,
				SubtitleStyle.Render("applied in "+res.Duration.Round(time.Millisecond).String()))
		case provision.OutcomeSkipped:
			fmt.Fprintf(w, "  %s %-*s %s\n", successIcon, width, res.Name,
				SubtitleStyle.Render("already done"))
		}
	}

	fmt.Fprintln(w)
	if report.AllSatisfied() {
		fmt.Fprintf(w, "%s Nothing to do: every step was already satisfied\n", successIcon)
		return
	}
	fmt.Fprintf(w, "%s Provisioned in %s (%d applied, %d skipped)\n",
		successIcon, report.Duration().Round(time.Millisecond), report.Applied(), report.Skipped())
}

// nameColumnWidth sizes the step name column to the longest name.
func nameColumnWidth(report *provision.Report) int {
	width := 0
	for _, res := range report.Results {
		width = max(width, len(res.Name))
	}
	return width
}

// newRunLogger builds the stderr logger provisioning progress is reported
// through. Verbose mode lowers the level to debug.
func newRunLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
