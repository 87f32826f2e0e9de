// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"time"
)

const (
	// OutcomeApplied means the step ran its action successfully.
	OutcomeApplied Outcome = "applied"
	// OutcomeSkipped means the step's check found its effect already present.
	OutcomeSkipped Outcome = "skipped"
	// OutcomePending means a plan-only pass found the step's effect missing.
	OutcomePending Outcome = "pending"
	// OutcomeUnknown means a plan-only pass could not determine the step's
	// state, typically because a collaborator was unreachable.
	OutcomeUnknown Outcome = "unknown"
	// OutcomeFailed means the step's check or apply returned an error.
	OutcomeFailed Outcome = "failed"
)

type (
	// Step is one idempotent provisioning action. Check reports whether the
	// step's effect is already present; when it is not, the runner invokes
	// Apply. A step must converge: after a successful Apply, Check returns
	// true on every later run.
	Step interface {
		// Name is the step's stable identifier, used in logs and receipts.
		Name() string
		// Summary is a short imperative description shown next to the spinner.
		Summary() string
		// Check reports whether the step's effect is already present.
		Check(ctx context.Context) (satisfied bool, err error)
		// Apply performs the step's action.
		Apply(ctx context.Context) error
	}

	// Preparer is implemented by steps that need interactive input resolved
	// before Apply runs under the spinner. The runner calls Prepare after an
	// unsatisfied check and before Apply, and never during a plan-only pass.
	Preparer interface {
		Prepare(ctx context.Context) error
	}

	// Outcome classifies how a step ended within a run.
	Outcome string

	// StepResult records one step's outcome within a run.
	StepResult struct {
		// Name is the step's identifier.
		Name string
		// Summary is the step's display description.
		Summary string
		// Outcome classifies how the step ended.
		Outcome Outcome
		// Duration is how long the check (and apply, when run) took.
		Duration time.Duration
		// Err is the failure for OutcomeFailed, or the check error that
		// produced OutcomeUnknown in a plan-only pass. Nil otherwise.
		Err error
	}

	// Tally counts the changes a run has made (or, in a plan-only pass,
	// would make). The web server restart step consults it so a fully
	// skipped run stays free of side effects.
	Tally struct {
		changed int
	}
)

// String returns the outcome's wire form.
func (o Outcome) String() string { return string(o) }

// NewTally creates an empty Tally.
func NewTally() *Tally {
	return &Tally{}
}

// Record notes one changed step.
func (t *Tally) Record() {
	t.changed++
}

// Changed returns how many steps have changed state so far.
func (t *Tally) Changed() int {
	return t.changed
}
