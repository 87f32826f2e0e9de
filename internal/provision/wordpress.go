// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielcregg/aws2023-wp/internal/archive"
	"github.com/danielcregg/aws2023-wp/internal/config"
	"github.com/danielcregg/aws2023-wp/internal/fetch"
	"github.com/danielcregg/aws2023-wp/internal/fsutil"
	"github.com/danielcregg/aws2023-wp/internal/issue"
)

// wpSentinel is the file whose presence marks a completed WordPress install.
// wp-settings.php ships in every release and is never user-edited.
const wpSentinel = "wp-settings.php"

// Compile-time interface checks
var (
	_ Step     = (*WordPressStep)(nil)
	_ Preparer = (*WordPressStep)(nil)
)

// WordPressStep ensures WordPress is installed under the web root: download
// the release archive, extract it, render wp-config.php with credentials and
// fresh salts, and hand ownership to the web server account.
type WordPressStep struct {
	fetcher  *fetch.Client
	source   string
	webRoot  string
	db       config.DatabaseConfig
	owner    config.OwnerConfig
	password *PasswordSource
}

// NewWordPressStep creates the step.
func NewWordPressStep(fetcher *fetch.Client, source, webRoot string,
	db config.DatabaseConfig, owner config.OwnerConfig, password *PasswordSource,
) *WordPressStep {
	return &WordPressStep{
		fetcher:  fetcher,
		source:   source,
		webRoot:  webRoot,
		db:       db,
		owner:    owner,
		password: password,
	}
}

// Name implements Step.
func (s *WordPressStep) Name() string { return "wordpress" }

// Summary implements Step.
func (s *WordPressStep) Summary() string { return "Install WordPress" }

// Check reports whether the install sentinel is present under the web root.
func (s *WordPressStep) Check(_ context.Context) (bool, error) {
	return fsutil.FileExists(filepath.Join(s.webRoot, wpSentinel)), nil
}

// Prepare resolves the database password wp-config.php will embed, so any
// prompt happens outside the spinner.
func (s *WordPressStep) Prepare(ctx context.Context) error {
	_, err := s.password.Get()
	return err
}

// Apply downloads, extracts, configures, and installs WordPress. The tree is
// staged inside the web root so the final moves never cross filesystems.
func (s *WordPressStep) Apply(ctx context.Context) error {
	pw, err := s.password.Get()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.webRoot, 0o755); err != nil {
		return fmt.Errorf("creating web root %s: %w", s.webRoot, err)
	}

	archivePath, err := s.fetcher.DownloadToTemp(ctx, s.source, "")
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("download WordPress").
			WithResource(s.source).
			WithSuggestion("Check the machine's network connectivity").
			WithSuggestion("Verify sources.wordpress points at a tar.gz release archive").
			Wrap(err).
			BuildError()
	}
	defer func() { _ = os.Remove(archivePath) }()

	stage, err := os.MkdirTemp(s.webRoot, ".wpstack-")
	if err != nil {
		return fmt.Errorf("creating staging dir in %s: %w", s.webRoot, err)
	}
	defer func() { _ = os.RemoveAll(stage) }()

	if _, err := archive.ExtractTarGz(ctx, archivePath, stage, archive.WithStripComponents(1)); err != nil {
		return issue.NewErrorContext().
			WithOperation("extract WordPress archive").
			WithResource(s.source).
			WithSuggestion("The downloaded archive may be truncated; re-run to retry the download").
			Wrap(err).
			BuildError()
	}

	err = writeWPConfig(stage, wpConfigValues{
		DBName:     s.db.Name.String(),
		DBUser:     s.db.User.String(),
		DBPassword: pw,
		DBHost:     s.db.Host,
	})
	if err != nil {
		return err
	}

	if err := fsutil.MoveMerge(stage, s.webRoot); err != nil {
		return err
	}
	return ownTree(s.webRoot, s.owner)
}
