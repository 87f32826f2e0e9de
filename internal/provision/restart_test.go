// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"testing"

	"github.com/danielcregg/aws2023-wp/internal/service"
	"github.com/danielcregg/aws2023-wp/internal/testutil"
)

func TestRestartStep_SkipsWhenNothingChanged(t *testing.T) {
	t.Parallel()

	runner := testutil.NewFakeRunner()
	tally := NewTally()
	step := NewRestartStep(service.NewManager(runner), "httpd", tally)

	satisfied, err := step.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !satisfied {
		t.Error("expected satisfied with an untouched tally")
	}
	if runner.CallCount() != 0 {
		t.Errorf("check executed %d commands, want 0", runner.CallCount())
	}
}

func TestRestartStep_AppliesAfterChanges(t *testing.T) {
	t.Parallel()

	runner := testutil.NewFakeRunner()
	tally := NewTally()
	tally.Record()
	step := NewRestartStep(service.NewManager(runner), "httpd", tally)

	satisfied, err := step.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if satisfied {
		t.Fatal("expected unsatisfied after a recorded change")
	}

	if err := step.Apply(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !runner.Called("systemctl restart httpd") {
		t.Errorf("expected a restart, calls: %v", runner.Calls())
	}
}

func TestRestartStep_EndToEndWithRunner(t *testing.T) {
	t.Parallel()

	// A run that changes something restarts the web server.
	exec := testutil.NewFakeRunner()
	tally := NewTally()
	changing := &fakeStep{name: "changing"}
	restart := NewRestartStep(service.NewManager(exec), "httpd", tally)

	report, err := NewRunner([]Step{changing, restart}, WithTally(tally)).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := report.Results[1].Outcome; got != OutcomeApplied {
		t.Errorf("restart outcome %q, want %q", got, OutcomeApplied)
	}
	if !exec.Called("systemctl restart httpd") {
		t.Error("expected the web server to restart after a change")
	}

	// A fully converged run leaves the web server alone.
	exec = testutil.NewFakeRunner()
	tally = NewTally()
	settled := &fakeStep{name: "settled", satisfied: true}
	restart = NewRestartStep(service.NewManager(exec), "httpd", tally)

	report, err = NewRunner([]Step{settled, restart}, WithTally(tally)).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := report.Results[1].Outcome; got != OutcomeSkipped {
		t.Errorf("restart outcome %q, want %q", got, OutcomeSkipped)
	}
	if exec.Called("systemctl restart") {
		t.Error("restarted the web server on a converged run")
	}
}
