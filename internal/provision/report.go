// SPDX-License-Identifier: MPL-2.0

package provision

import "time"

// Report records what one run (or plan-only pass) did, step by step.
type Report struct {
	// RunID identifies the run in logs and receipts.
	RunID string
	// StartedAt is when the run began.
	StartedAt time.Time
	// FinishedAt is when the run ended, successfully or not.
	FinishedAt time.Time
	// Planned is true for a check-only pass that applied nothing.
	Planned bool
	// Results holds one entry per step that was reached, in order. Steps
	// after an aborted run's failure are absent.
	Results []StepResult
	// Err is the first step failure, nil for a clean run.
	Err error
}

// Duration is the run's wall-clock time.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Applied counts steps that ran their action.
func (r *Report) Applied() int {
	return r.count(OutcomeApplied)
}

// Skipped counts steps whose check was already satisfied.
func (r *Report) Skipped() int {
	return r.count(OutcomeSkipped)
}

// Pending counts steps a plan-only pass would apply.
func (r *Report) Pending() int {
	return r.count(OutcomePending)
}

// Unknown counts steps whose plan-only check was inconclusive.
func (r *Report) Unknown() int {
	return r.count(OutcomeUnknown)
}

// Failed returns the failing step's result, or nil for a clean run.
func (r *Report) Failed() *StepResult {
	for i := range r.Results {
		if r.Results[i].Outcome == OutcomeFailed {
			return &r.Results[i]
		}
	}
	return nil
}

// AllSatisfied reports whether every step was already in its desired state.
func (r *Report) AllSatisfied() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if res.Outcome != OutcomeSkipped {
			return false
		}
	}
	return true
}

func (r *Report) count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}
