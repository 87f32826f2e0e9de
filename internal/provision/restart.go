// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"

	"github.com/danielcregg/aws2023-wp/internal/issue"
	"github.com/danielcregg/aws2023-wp/internal/service"
)

// Compile-time interface check
var _ Step = (*RestartStep)(nil)

// RestartStep restarts the web server so changes made earlier in the run
// take effect. When no earlier step changed anything the restart is
// skipped, which keeps a converged system untouched from first step to
// last.
type RestartStep struct {
	svc   *service.Manager
	unit  string
	tally *Tally
}

// NewRestartStep creates the final step of a run. The tally is shared with
// the runner, which records every applied step into it.
func NewRestartStep(svc *service.Manager, unit string, tally *Tally) *RestartStep {
	return &RestartStep{svc: svc, unit: unit, tally: tally}
}

// Name identifies the step in logs and receipts.
func (s *RestartStep) Name() string { return "restart-webserver" }

// Summary describes the step while it runs.
func (s *RestartStep) Summary() string { return "Restart the web server" }

// Check is satisfied when nothing changed earlier in this run.
func (s *RestartStep) Check(_ context.Context) (bool, error) {
	return s.tally.Changed() == 0, nil
}

// Apply restarts the web server unit.
func (s *RestartStep) Apply(ctx context.Context) error {
	if err := s.svc.Restart(ctx, s.unit); err != nil {
		return issue.NewErrorContext().
			WithOperation("restart web server").
			WithResource(s.unit).
			WithSuggestion("Check the unit's status with 'systemctl status " + s.unit + "'").
			WithSuggestion("Inspect recent unit logs with 'journalctl -xeu " + s.unit + "'").
			Wrap(err).
			BuildError()
	}
	return nil
}
