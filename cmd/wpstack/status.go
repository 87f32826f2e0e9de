// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielcregg/aws2023-wp/internal/config"
	"github.com/danielcregg/aws2023-wp/internal/issue"
	"github.com/danielcregg/aws2023-wp/internal/provision"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report per-step provisioning state",
	Long: `Report per-step provisioning state for this host.

Every step's check runs without applying anything, so status can be
used at any time, root or not. Checks that need privileges the caller
lacks come back as unknown. Steps that a previous run applied also
show when that happened.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
		renderIssue(stderr, issue.ConfigLoadFailedId)
		return &ExitError{Code: 1, Err: err}
	}

	runner, err := provision.Assemble(cfg, provision.Deps{Logger: newRunLogger()})
	if err != nil {
		fmt.Fprintf(stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
		if id := sentinelIssue(err); id != 0 {
			renderIssue(stderr, id)
		}
		return &ExitError{Code: 1, Err: err}
	}

	report := runner.Plan(cmd.Context())
	receipts := provision.NewReceiptStore(cfg.StateDir.String())
	renderStatus(stdout, cfg, report, receipts)
	return nil
}

// renderStatus prints the status header, one line per step, and a summary.
func renderStatus(w io.Writer, cfg *config.Config, report *provision.Report, receipts *provision.ReceiptStore) {
	fmt.Fprintln(w, TitleStyle.Render("Provisioning Status"))
	fmt.Fprintf(w, "%s Config:    %s\n", infoIcon, configSource())
	fmt.Fprintf(w, "%s Web root:  %s\n", infoIcon, cfg.WebRoot)
	fmt.Fprintf(w, "%s State dir: %s\n", infoIcon, cfg.StateDir)
	fmt.Fprintln(w)

	width := nameColumnWidth(report)
	for _, res := range report.Results {
		fmt.Fprintf(w, "  %s %-*s %s\n", statusIcon(res.Outcome), width, res.Name, statusDetail(res, receipts))
	}

	fmt.Fprintln(w)
	switch {
	case report.AllSatisfied():
		fmt.Fprintf(w, "%s Stack is fully provisioned\n", successIcon)
	case report.Pending() > 0:
		fmt.Fprintf(w, "%s %d step(s) need to run: apply them with %s\n",
			pendingIcon, report.Pending(), CmdStyle.Render("sudo wpstack up"))
	default:
		fmt.Fprintf(w, "%s Some checks were inconclusive: re-run as root for a definitive answer\n", unknownIcon)
	}
}

// statusIcon maps a plan outcome to its list icon.
func statusIcon(o provision.Outcome) string {
	switch o {
	case provision.OutcomeSkipped:
		return successIcon
	case provision.OutcomePending:
		return pendingIcon
	default:
		return unknownIcon
	}
}

// statusDetail describes one step's state, folding in the receipt from the
// last run that applied it. The check verdict stays authoritative; the
// receipt only says when the work was done.
func statusDetail(res provision.StepResult, receipts *provision.ReceiptStore) string {
	switch res.Outcome {
	case provision.OutcomeSkipped:
		detail := "done"
		if rec, err := receipts.Load(res.Name); err == nil && rec != nil {
			detail = "done " + SubtitleStyle.Render("(applied "+rec.AppliedAt.Local().Format(time.DateTime)+")")
		}
		return detail
	case provision.OutcomePending:
		return "pending: " + res.Summary
	default:
		detail := "unknown"
		if res.Err != nil {
			detail += " " + SubtitleStyle.Render("("+res.Err.Error()+")")
		}
		return detail
	}
}

// configSource names where the effective configuration came from.
func configSource() string {
	if path := config.LoadedConfigPath(); path != "" {
		return path
	}
	return SubtitleStyle.Render("built-in defaults")
}
