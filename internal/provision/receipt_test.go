// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"testing"
	"time"
)

func TestReceiptStore_WriteThenLoad(t *testing.T) {
	t.Parallel()

	store := NewReceiptStore(t.TempDir())
	want := Receipt{
		Step:      "wordpress",
		RunID:     "run-123",
		AppliedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Summary:   "Install WordPress",
	}

	if err := store.Write(want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Load("wordpress")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a receipt")
	}
	if got.Step != want.Step || got.RunID != want.RunID || got.Summary != want.Summary {
		t.Errorf("loaded %+v, want %+v", got, want)
	}
	if !got.AppliedAt.Equal(want.AppliedAt) {
		t.Errorf("AppliedAt = %v, want %v", got.AppliedAt, want.AppliedAt)
	}
}

func TestReceiptStore_LoadMissingIsNotAnError(t *testing.T) {
	t.Parallel()

	store := NewReceiptStore(t.TempDir())

	rec, err := store.Load("never-written")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil receipt, got %+v", rec)
	}
}

func TestReceiptStore_WriteReplacesPrevious(t *testing.T) {
	t.Parallel()

	store := NewReceiptStore(t.TempDir())

	first := Receipt{Step: "database", RunID: "run-1", AppliedAt: time.Now().UTC()}
	second := Receipt{Step: "database", RunID: "run-2", AppliedAt: time.Now().UTC()}
	if err := store.Write(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Write(second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Load("database")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RunID != "run-2" {
		t.Errorf("RunID = %q, want the later run", got.RunID)
	}
}
