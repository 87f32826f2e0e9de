// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"

	"github.com/danielcregg/aws2023-wp/internal/execx"
	"github.com/danielcregg/aws2023-wp/internal/issue"
	"github.com/danielcregg/aws2023-wp/internal/pkgmgr"
)

// Compile-time interface check
var _ Step = (*PackagesStep)(nil)

// PackagesStep ensures the stack's OS packages are installed. The package
// manager is detected on first use so that a plan-only pass on a machine
// without one reports the step as unknown instead of failing outright.
type PackagesStep struct {
	exec execx.Runner
	pkgs []string
	mgr  *pkgmgr.Manager
}

// NewPackagesStep creates the step for the given package list.
func NewPackagesStep(exec execx.Runner, pkgs []string) *PackagesStep {
	return &PackagesStep{exec: exec, pkgs: pkgs}
}

// Name implements Step.
func (s *PackagesStep) Name() string { return "packages" }

// Summary implements Step.
func (s *PackagesStep) Summary() string { return "Install LAMP packages" }

// Check reports whether every configured package is already installed.
func (s *PackagesStep) Check(ctx context.Context) (bool, error) {
	mgr, err := s.manager()
	if err != nil {
		return false, err
	}
	missing, err := mgr.Missing(ctx, s.pkgs)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// Apply installs the missing packages in one transaction.
func (s *PackagesStep) Apply(ctx context.Context) error {
	mgr, err := s.manager()
	if err != nil {
		return err
	}
	missing, err := mgr.Missing(ctx, s.pkgs)
	if err != nil {
		return err
	}
	return mgr.Install(ctx, missing...)
}

func (s *PackagesStep) manager() (*pkgmgr.Manager, error) {
	if s.mgr != nil {
		return s.mgr, nil
	}

	mgr, err := pkgmgr.Detect(s.exec)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("detect package manager").
			WithSuggestion("Supported package managers are dnf, yum, and apt-get").
			WithSuggestion("Install the packages manually and set install.packages to false").
			Wrap(err).
			BuildError()
	}
	s.mgr = mgr
	return mgr, nil
}
