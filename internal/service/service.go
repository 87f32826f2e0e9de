// SPDX-License-Identifier: MPL-2.0

// Package service wraps systemctl for the handful of unit operations the
// provisioning steps need. Probes report state as data; mutations surface
// systemctl failures with their stderr attached.
package service

import (
	"context"
	"fmt"

	"github.com/danielcregg/aws2023-wp/internal/execx"
)

const systemctlBin = "systemctl"

// Manager drives systemd units through an execx.Runner.
type Manager struct {
	runner execx.Runner
}

// NewManager creates a Manager on top of the given runner.
func NewManager(r execx.Runner) *Manager {
	return &Manager{runner: r}
}

// Available reports whether systemctl is on PATH.
func (m *Manager) Available() bool {
	_, err := m.runner.LookPath(systemctlBin)
	return err == nil
}

// IsActive reports whether the unit is currently running. A clean non-zero
// exit from "systemctl is-active" means inactive (including unknown units);
// only a command that fails to run at all is an error.
func (m *Manager) IsActive(ctx context.Context, unit string) (bool, error) {
	res, err := m.runner.Capture(ctx, systemctlBin, "is-active", unit)
	if err != nil {
		return false, fmt.Errorf("probing unit %s: %w", unit, err)
	}
	return res.ExitCode == 0, nil
}

// IsEnabled reports whether the unit is enabled to start at boot.
func (m *Manager) IsEnabled(ctx context.Context, unit string) (bool, error) {
	res, err := m.runner.Capture(ctx, systemctlBin, "is-enabled", unit)
	if err != nil {
		return false, fmt.Errorf("probing unit %s: %w", unit, err)
	}
	return res.ExitCode == 0, nil
}

// EnableNow enables the unit for boot and starts it immediately.
func (m *Manager) EnableNow(ctx context.Context, unit string) error {
	if err := m.runner.Run(ctx, systemctlBin, "enable", "--now", unit); err != nil {
		return fmt.Errorf("enabling unit %s: %w", unit, err)
	}
	return nil
}

// Restart restarts the unit.
func (m *Manager) Restart(ctx context.Context, unit string) error {
	if err := m.runner.Run(ctx, systemctlBin, "restart", unit); err != nil {
		return fmt.Errorf("restarting unit %s: %w", unit, err)
	}
	return nil
}
