// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"

	"github.com/danielcregg/aws2023-wp/internal/issue"
	"github.com/danielcregg/aws2023-wp/internal/service"
)

// Compile-time interface check
var _ Step = (*ServicesStep)(nil)

// ServicesStep ensures every configured systemd unit is running and enabled
// at boot.
type ServicesStep struct {
	svc   *service.Manager
	units []string
}

// NewServicesStep creates the step for the given unit names.
func NewServicesStep(svc *service.Manager, units []string) *ServicesStep {
	return &ServicesStep{svc: svc, units: units}
}

// Name implements Step.
func (s *ServicesStep) Name() string { return "services" }

// Summary implements Step.
func (s *ServicesStep) Summary() string { return "Start system services" }

// Check reports whether every unit is already active.
func (s *ServicesStep) Check(ctx context.Context) (bool, error) {
	for _, unit := range s.units {
		active, err := s.svc.IsActive(ctx, unit)
		if err != nil {
			return false, err
		}
		if !active {
			return false, nil
		}
	}
	return true, nil
}

// Apply enables and starts every unit that is not yet active.
func (s *ServicesStep) Apply(ctx context.Context) error {
	for _, unit := range s.units {
		active, err := s.svc.IsActive(ctx, unit)
		if err != nil {
			return err
		}
		if active {
			continue
		}
		if err := s.svc.EnableNow(ctx, unit); err != nil {
			return issue.NewErrorContext().
				WithOperation("start service").
				WithResource(unit).
				WithSuggestion("Check the unit's status with 'systemctl status " + unit + "'").
				WithSuggestion("Inspect recent unit logs with 'journalctl -xeu " + unit + "'").
				Wrap(err).
				BuildError()
		}
	}
	return nil
}
