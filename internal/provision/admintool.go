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

const (
	// pmaDirName is the directory under the web root phpMyAdmin serves from.
	pmaDirName    = "phpmyadmin"
	pmaConfigFile = "config.inc.php"

	// blowfishLength is the cookie-auth secret size phpMyAdmin expects.
	blowfishLength   = 32
	blowfishAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Compile-time interface check
var _ Step = (*PHPMyAdminStep)(nil)

// PHPMyAdminStep ensures phpMyAdmin is installed under the web root with a
// generated config.inc.php. The extracted tree is staged next to the target
// and moved into place with a single rename.
type PHPMyAdminStep struct {
	fetcher *fetch.Client
	source  string
	webRoot string
	dbHost  string
	owner   config.OwnerConfig
}

// NewPHPMyAdminStep creates the step.
func NewPHPMyAdminStep(fetcher *fetch.Client, source, webRoot, dbHost string,
	owner config.OwnerConfig,
) *PHPMyAdminStep {
	return &PHPMyAdminStep{
		fetcher: fetcher,
		source:  source,
		webRoot: webRoot,
		dbHost:  dbHost,
		owner:   owner,
	}
}

// Name implements Step.
func (s *PHPMyAdminStep) Name() string { return "phpmyadmin" }

// Summary implements Step.
func (s *PHPMyAdminStep) Summary() string { return "Install phpMyAdmin" }

// Check reports whether the phpmyadmin directory exists under the web root.
func (s *PHPMyAdminStep) Check(_ context.Context) (bool, error) {
	return fsutil.DirExists(filepath.Join(s.webRoot, pmaDirName)), nil
}

// Apply downloads and extracts the release archive, writes config.inc.php
// with a fresh blowfish secret, and moves the tree into place.
func (s *PHPMyAdminStep) Apply(ctx context.Context) error {
	if err := os.MkdirAll(s.webRoot, 0o755); err != nil {
		return fmt.Errorf("creating web root %s: %w", s.webRoot, err)
	}

	archivePath, err := s.fetcher.DownloadToTemp(ctx, s.source, "")
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("download phpMyAdmin").
			WithResource(s.source).
			WithSuggestion("Check the machine's network connectivity").
			WithSuggestion("Verify sources.phpmyadmin points at a tar.gz release archive").
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
			WithOperation("extract phpMyAdmin archive").
			WithResource(s.source).
			WithSuggestion("The downloaded archive may be truncated; re-run to retry the download").
			Wrap(err).
			BuildError()
	}

	if err := writePMAConfig(stage, s.dbHost); err != nil {
		return err
	}

	target := filepath.Join(s.webRoot, pmaDirName)
	if err := os.Rename(stage, target); err != nil {
		return fmt.Errorf("installing phpMyAdmin into %s: %w", target, err)
	}
	return ownTree(target, s.owner)
}

// writePMAConfig renders config.inc.php in dir with a generated cookie-auth
// secret and the configured database host.
func writePMAConfig(dir, host string) error {
	secret, err := randomString(blowfishAlphabet, blowfishLength)
	if err != nil {
		return err
	}

	content := fmt.Sprintf(`<?php
/**
 * phpMyAdmin configuration written by wpstack.
 */

declare(strict_types=1);

$cfg['blowfish_secret'] = '%s';

$i = 0;
$i++;

/* Server parameters */
$cfg['Servers'][$i]['auth_type'] = 'cookie';
$cfg['Servers'][$i]['host'] = '%s';
$cfg['Servers'][$i]['compress'] = false;
$cfg['Servers'][$i]['AllowNoPassword'] = false;

$cfg['UploadDir'] = '';
$cfg['SaveDir'] = '';
`, secret, phpEscape(host))

	target := filepath.Join(dir, pmaConfigFile)
	if err := fsutil.WriteFileAtomic(target, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}
