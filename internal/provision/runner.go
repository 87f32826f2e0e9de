// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/danielcregg/aws2023-wp/internal/tui"
)

//nolint:gochecknoglobals // Test seam for deterministic run identifiers.
var newRunID = uuid.NewString

type (
	// Runner drives an ordered list of steps sequentially. The first step
	// failure aborts the run; later steps are never invoked. Construct with
	// NewRunner.
	Runner struct {
		steps    []Step
		logger   *log.Logger
		spinner  *tui.Spinner
		tally    *Tally
		receipts *ReceiptStore
	}

	// RunnerOption configures a Runner during construction.
	RunnerOption func(*Runner)
)

// WithLogger sets the logger run progress is reported through.
func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithSpinner sets the decorative spinner shown while a step applies.
func WithSpinner(s *tui.Spinner) RunnerOption {
	return func(r *Runner) {
		r.spinner = s
	}
}

// WithTally sets the change tally shared with steps that consult it.
func WithTally(t *Tally) RunnerOption {
	return func(r *Runner) {
		r.tally = t
	}
}

// WithReceipts sets the store applied steps write receipts to.
func WithReceipts(store *ReceiptStore) RunnerOption {
	return func(r *Runner) {
		r.receipts = store
	}
}

// NewRunner creates a Runner over the given steps. Without options, progress
// is discarded, no spinner is shown, and no receipts are written.
func NewRunner(steps []Step, opts ...RunnerOption) *Runner {
	r := &Runner{
		steps:  steps,
		logger: log.New(io.Discard),
		tally:  NewTally(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every step in order: check, then apply when the check is
// unsatisfied. The first failing step aborts the run and its error is
// returned; the Report records how far the run got.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: newRunID(), StartedAt: time.Now()}
	defer r.closeSteps()

	r.logger.Info("starting provisioning run", "run_id", report.RunID, "steps", len(r.steps))

	for _, step := range r.steps {
		res := r.runStep(ctx, step, report.RunID)
		report.Results = append(report.Results, res)
		if res.Outcome == OutcomeFailed {
			report.Err = res.Err
			report.FinishedAt = time.Now()
			return report, fmt.Errorf("step %s: %w", step.Name(), res.Err)
		}
	}

	report.FinishedAt = time.Now()
	r.logger.Info("provisioning complete", "run_id", report.RunID,
		"applied", report.Applied(), "skipped", report.Skipped())
	return report, nil
}

// Plan runs every step's check without applying anything. Check errors do
// not abort the pass; the step is recorded as OutcomeUnknown instead. Used
// by dry runs and status reporting.
func (r *Runner) Plan(ctx context.Context) *Report {
	report := &Report{RunID: newRunID(), StartedAt: time.Now(), Planned: true}
	defer r.closeSteps()

	for _, step := range r.steps {
		res := StepResult{Name: step.Name(), Summary: step.Summary()}
		started := time.Now()

		satisfied, err := step.Check(ctx)
		res.Duration = time.Since(started)
		switch {
		case err != nil:
			res.Outcome = OutcomeUnknown
			res.Err = err
			r.logger.Debug("check inconclusive", "step", step.Name(), "error", err)
		case satisfied:
			res.Outcome = OutcomeSkipped
		default:
			res.Outcome = OutcomePending
			r.tally.Record()
		}

		report.Results = append(report.Results, res)
	}

	report.FinishedAt = time.Now()
	return report
}

// runStep executes one step end to end and classifies the outcome.
func (r *Runner) runStep(ctx context.Context, step Step, runID string) (res StepResult) {
	res = StepResult{Name: step.Name(), Summary: step.Summary()}
	started := time.Now()
	defer func() { res.Duration = time.Since(started) }()

	satisfied, err := step.Check(ctx)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		r.logger.Error("step failed", "step", step.Name(), "phase", "check", "error", err)
		return res
	}
	if satisfied {
		res.Outcome = OutcomeSkipped
		r.logger.Info("skipped (already satisfied)", "step", step.Name())
		return res
	}

	// Interactive input is resolved here so prompts never fight the spinner.
	if p, ok := step.(Preparer); ok {
		if err := p.Prepare(ctx); err != nil {
			res.Outcome = OutcomeFailed
			res.Err = err
			r.logger.Error("step failed", "step", step.Name(), "phase", "prepare", "error", err)
			return res
		}
	}

	if err := r.apply(ctx, step); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		r.logger.Error("step failed", "step", step.Name(), "phase", "apply", "error", err)
		return res
	}

	res.Outcome = OutcomeApplied
	r.tally.Record()
	r.logger.Info("applied", "step", step.Name(),
		"duration", time.Since(started).Round(time.Millisecond))
	r.writeReceipt(step, runID)
	return res
}

// apply runs the step's action, under the spinner when one is configured.
func (r *Runner) apply(ctx context.Context, step Step) error {
	action := func() error { return step.Apply(ctx) }
	if r.spinner == nil {
		return action()
	}
	return r.spinner.Run(step.Summary(), action)
}

// writeReceipt records an applied step. Receipts are informational, so a
// write failure is logged and the run continues.
func (r *Runner) writeReceipt(step Step, runID string) {
	if r.receipts == nil {
		return
	}
	rec := Receipt{
		Step:      step.Name(),
		RunID:     runID,
		AppliedAt: time.Now().UTC(),
		Summary:   step.Summary(),
	}
	if err := r.receipts.Write(rec); err != nil {
		r.logger.Warn("could not write receipt", "step", step.Name(), "error", err)
	}
}

// closeSteps releases resources held by steps that keep connections open
// across check and apply.
func (r *Runner) closeSteps() {
	for _, step := range r.steps {
		c, ok := step.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			r.logger.Debug("step cleanup failed", "step", step.Name(), "error", err)
		}
	}
}
