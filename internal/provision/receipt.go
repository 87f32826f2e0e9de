// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/danielcregg/aws2023-wp/internal/fsutil"
)

const receiptsSubdir = "receipts"

type (
	// Receipt records that a step applied its action. Receipts are
	// informational: status reporting surfaces them, but the authoritative
	// "is this done" answer always comes from the step's own check.
	Receipt struct {
		// Step is the step's identifier.
		Step string `toml:"step"`
		// RunID is the run that applied the step.
		RunID string `toml:"run_id"`
		// AppliedAt is when the apply finished, in UTC.
		AppliedAt time.Time `toml:"applied_at"`
		// Summary is the step's display description at apply time.
		Summary string `toml:"summary,omitempty"`
	}

	// ReceiptStore reads and writes per-step receipts under the state dir.
	ReceiptStore struct {
		dir string
	}
)

// NewReceiptStore creates a store rooted at stateDir. The directory is
// created on first write.
func NewReceiptStore(stateDir string) *ReceiptStore {
	return &ReceiptStore{dir: filepath.Join(stateDir, receiptsSubdir)}
}

// Write persists the receipt for rec.Step, replacing any previous one.
func (s *ReceiptStore) Write(rec Receipt) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating receipt dir %s: %w", s.dir, err)
	}

	data, err := toml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding receipt for %s: %w", rec.Step, err)
	}

	if err := fsutil.WriteFileAtomic(s.path(rec.Step), data, 0o644); err != nil {
		return fmt.Errorf("writing receipt for %s: %w", rec.Step, err)
	}
	return nil
}

// Load returns the receipt for the named step, or nil when none has been
// written yet.
func (s *ReceiptStore) Load(step string) (*Receipt, error) {
	data, err := os.ReadFile(s.path(step))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading receipt for %s: %w", step, err)
	}

	var rec Receipt
	if err := toml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing receipt for %s: %w", step, err)
	}
	return &rec, nil
}

func (s *ReceiptStore) path(step string) string {
	return filepath.Join(s.dir, step+".toml")
}
