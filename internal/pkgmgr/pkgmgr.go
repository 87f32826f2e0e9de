// SPDX-License-Identifier: MPL-2.0

// Package pkgmgr detects the system package manager and installs packages
// through it. Amazon Linux and Fedora use dnf, older RHEL derivatives yum,
// and Debian derivatives apt-get; detection prefers them in that order.
package pkgmgr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danielcregg/aws2023-wp/internal/execx"
)

// Kind identifies a supported package manager binary.
type Kind string

const (
	KindDNF Kind = "dnf"
	KindYum Kind = "yum"
	KindApt Kind = "apt-get"
)

// ErrNoPackageManager indicates none of the supported package managers is on PATH.
var ErrNoPackageManager = errors.New("no supported package manager found")

// Manager installs and probes system packages through an execx.Runner.
type Manager struct {
	runner execx.Runner
	kind   Kind
}

// Detect probes PATH for a supported package manager. Returns
// ErrNoPackageManager when none is found.
func Detect(r execx.Runner) (*Manager, error) {
	for _, k := range []Kind{KindDNF, KindYum, KindApt} {
		if _, err := r.LookPath(string(k)); err == nil {
			return &Manager{runner: r, kind: k}, nil
		}
	}
	return nil, ErrNoPackageManager
}

// NewManager creates a Manager for a known kind, bypassing detection.
func NewManager(r execx.Runner, k Kind) *Manager {
	return &Manager{runner: r, kind: k}
}

// Kind returns which package manager this Manager drives.
func (m *Manager) Kind() Kind {
	return m.kind
}

// Installed reports whether pkg is installed. The probe uses the package
// database directly (rpm or dpkg-query), so it stays fast and offline.
func (m *Manager) Installed(ctx context.Context, pkg string) (bool, error) {
	switch m.kind {
	case KindDNF, KindYum:
		res, err := m.runner.Capture(ctx, "rpm", "-q", pkg)
		if err != nil {
			return false, fmt.Errorf("probing package %s: %w", pkg, err)
		}
		return res.ExitCode == 0, nil

	case KindApt:
		res, err := m.runner.Capture(ctx, "dpkg-query", "-W", "-f=${Status}", pkg)
		if err != nil {
			return false, fmt.Errorf("probing package %s: %w", pkg, err)
		}
		return res.ExitCode == 0 && strings.Contains(res.Output, "install ok installed"), nil

	default:
		return false, fmt.Errorf("unsupported package manager %q", m.kind)
	}
}

// Missing filters pkgs down to those not currently installed, preserving order.
func (m *Manager) Missing(ctx context.Context, pkgs []string) ([]string, error) {
	var missing []string
	for _, pkg := range pkgs {
		ok, err := m.Installed(ctx, pkg)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, pkg)
		}
	}
	return missing, nil
}

// Install installs the given packages in one transaction. A nil or empty
// list is a no-op.
func (m *Manager) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}

	args := append([]string{"install", "-y"}, pkgs...)
	if err := m.runner.Run(ctx, string(m.kind), args...); err != nil {
		return fmt.Errorf("installing packages: %w", err)
	}
	return nil
}
