// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/danielcregg/aws2023-wp/internal/pkgmgr"
	"github.com/danielcregg/aws2023-wp/internal/testutil"
)

func TestPackagesStep_Check_AllInstalled(t *testing.T) {
	t.Parallel()

	runner := testutil.NewFakeRunner()
	step := NewPackagesStep(runner, []string{"httpd", "php"})

	satisfied, err := step.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !satisfied {
		t.Error("expected satisfied with every package installed")
	}
	// Probes only, no install command.
	if runner.Called("dnf install") {
		t.Error("check ran an install command")
	}
}

func TestPackagesStep_Check_ReportsMissing(t *testing.T) {
	t.Parallel()

	runner := testutil.NewFakeRunner()
	runner.Script("rpm -q php", testutil.FakeResult{ExitCode: 1})
	step := NewPackagesStep(runner, []string{"httpd", "php"})

	satisfied, err := step.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if satisfied {
		t.Error("expected unsatisfied with a package missing")
	}
}

func TestPackagesStep_Apply_InstallsOnlyMissing(t *testing.T) {
	t.Parallel()

	runner := testutil.NewFakeRunner()
	runner.Script("rpm -q php", testutil.FakeResult{ExitCode: 1})
	runner.Script("rpm -q php-fpm", testutil.FakeResult{ExitCode: 1})
	step := NewPackagesStep(runner, []string{"httpd", "php", "php-fpm"})

	if err := step.Apply(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "dnf install -y php php-fpm"
	found := false
	for _, call := range runner.Calls() {
		if call == want {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %q among calls %v", want, runner.Calls())
	}
	if runner.Called("dnf install -y httpd") {
		t.Error("installed a package that was already present")
	}
}

func TestPackagesStep_NoManagerFound(t *testing.T) {
	t.Parallel()

	runner := testutil.NewFakeRunner()
	runner.MissingBinaries["dnf"] = true
	runner.MissingBinaries["yum"] = true
	runner.MissingBinaries["apt-get"] = true
	step := NewPackagesStep(runner, []string{"httpd"})

	_, err := step.Check(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, pkgmgr.ErrNoPackageManager) {
		t.Errorf("expected ErrNoPackageManager, got %v", err)
	}
}

func TestPackagesStep_FallsBackToApt(t *testing.T) {
	t.Parallel()

	runner := testutil.NewFakeRunner()
	runner.MissingBinaries["dnf"] = true
	runner.MissingBinaries["yum"] = true
	runner.Script("dpkg-query -W -f=${Status} apache2", testutil.FakeResult{ExitCode: 1})
	step := NewPackagesStep(runner, []string{"apache2"})

	if err := step.Apply(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !runner.Called("apt-get install -y apache2") {
		t.Errorf("expected an apt-get install, got %v", runner.Calls())
	}
}
