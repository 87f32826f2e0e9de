// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/danielcregg/aws2023-wp/internal/archive"
	"github.com/danielcregg/aws2023-wp/internal/fetch"
	"github.com/danielcregg/aws2023-wp/internal/issue"
	"github.com/danielcregg/aws2023-wp/internal/pkgmgr"
	"github.com/danielcregg/aws2023-wp/pkg/stepfile"
)

func TestClassifyStepError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		stepName    string
		err         error
		verbose     bool
		wantIssueID issue.Id
		wantInStyle []string
	}{
		{
			name:        "missing package manager maps to package manager issue",
			stepName:    "packages",
			err:         fmt.Errorf("step packages: %w", pkgmgr.ErrNoPackageManager),
			wantIssueID: issue.PackageManagerNotFoundId,
			wantInStyle: []string{"no supported package manager"},
		},
		{
			name:        "oversized download maps to download issue",
			stepName:    "wordpress",
			err:         fmt.Errorf("wrapped: %w", fetch.ErrTooLarge),
			wantIssueID: issue.DownloadFailedId,
			wantInStyle: []string{"size limit"},
		},
		{
			name:        "unsafe archive entry maps to archive issue",
			stepName:    "wordpress",
			err:         fmt.Errorf("wrapped: %w", archive.ErrUnsafePath),
			wantIssueID: issue.ArchiveInvalidId,
		},
		{
			name:        "corrupt gzip maps to archive issue",
			stepName:    "phpmyadmin",
			err:         fmt.Errorf("wrapped: %w", gzip.ErrHeader),
			wantIssueID: issue.ArchiveInvalidId,
		},
		{
			name:        "step file structural problems map to step file issue",
			err:         stepfile.ValidationErrors{errors.New("step 2: duplicate name \"seed\"")},
			wantIssueID: issue.StepFileParseErrorId,
			wantInStyle: []string{"duplicate name"},
		},
		{
			name:        "permission denied maps to web root issue",
			stepName:    "wordpress",
			err:         fmt.Errorf("creating directory wp-admin: %w", fs.ErrPermission),
			wantIssueID: issue.WebRootNotWritableId,
		},
		{
			name:     "download operation maps to download issue",
			stepName: "wordpress",
			err: issue.NewErrorContext().
				WithOperation("download WordPress").
				Wrap(errors.New("connect: connection refused")).
				BuildError(),
			wantIssueID: issue.DownloadFailedId,
			wantInStyle: []string{"connection refused"},
		},
		{
			name:     "extract operation maps to archive issue",
			stepName: "phpmyadmin",
			err: issue.NewErrorContext().
				WithOperation("extract phpMyAdmin archive").
				Wrap(errors.New("unexpected EOF")).
				BuildError(),
			wantIssueID: issue.ArchiveInvalidId,
		},
		{
			name: "step file load maps to step file issue",
			err: issue.NewErrorContext().
				WithOperation("load step file").
				WithResource("./wpsteps.cue").
				Wrap(errors.New("expected operand, found '}'")).
				BuildError(),
			wantIssueID: issue.StepFileParseErrorId,
		},
		{
			name:        "services step failure maps to service issue",
			stepName:    "services",
			err:         errors.New("unit httpd could not be enabled"),
			wantIssueID: issue.ServiceStartFailedId,
		},
		{
			name:        "restart step failure maps to service issue",
			stepName:    "restart-webserver",
			err:         errors.New("systemctl restart httpd: exit status 1"),
			wantIssueID: issue.ServiceStartFailedId,
		},
		{
			name:        "database step failure maps to database issue",
			stepName:    "database",
			err:         errors.New("dial unix /var/lib/mysql/mysql.sock: no such file or directory"),
			wantIssueID: issue.DatabaseUnreachableId,
		},
		{
			name:        "missing php.ini maps to php issue",
			stepName:    "phpini",
			err:         fmt.Errorf("reading /etc/php.ini: %w", fs.ErrNotExist),
			wantIssueID: issue.PHPIniNotFoundId,
		},
		{
			name:        "php step failure without missing file falls back to generic page",
			stepName:    "phpini",
			err:         errors.New("short write"),
			wantIssueID: issue.StepFailedId,
		},
		{
			name:        "custom step failure falls back to generic page",
			stepName:    "warm-cache",
			err:         errors.New("step warm-cache exited with status 3: no such table"),
			wantIssueID: issue.StepFailedId,
			wantInStyle: []string{"status 3"},
		},
		{
			name:     "verbose actionable error includes chain",
			stepName: "wordpress",
			err: issue.NewErrorContext().
				WithOperation("download WordPress").
				Wrap(errors.New("boom")).
				BuildError(),
			verbose:     true,
			wantIssueID: issue.DownloadFailedId,
			wantInStyle: []string{"Error chain:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotIssueID, styled := classifyStepError(tt.stepName, tt.err, tt.verbose)
			if gotIssueID != tt.wantIssueID {
				t.Fatalf("classifyStepError() issue ID = %v, want %v", gotIssueID, tt.wantIssueID)
			}

			for _, token := range tt.wantInStyle {
				if !strings.Contains(strings.ToLower(styled), strings.ToLower(token)) {
					t.Fatalf("styled message %q does not contain token %q", styled, token)
				}
			}
		})
	}
}

func TestSentinelIssue_NoMatch(t *testing.T) {
	t.Parallel()

	if got := sentinelIssue(errors.New("unexpected boom")); got != 0 {
		t.Errorf("sentinelIssue() = %v, want 0", got)
	}
}

func TestRenderIssue_WritesCatalogPage(t *testing.T) {
	// Not parallel: issueStyle reads the shared config cache.
	withTestConfig(t)

	var buf bytes.Buffer
	renderIssue(&buf, issue.PackageManagerNotFoundId)

	// Single words survive any word wrapping the renderer applies.
	for _, word := range []string{"dnf", "yum", "apt-get"} {
		if !strings.Contains(buf.String(), word) {
			t.Errorf("rendered page does not mention %q:\n%s", word, buf.String())
		}
	}
}

func TestRenderIssue_UnknownIdWritesNothing(t *testing.T) {
	withTestConfig(t)

	var buf bytes.Buffer
	renderIssue(&buf, issue.Id(9999))

	if buf.Len() != 0 {
		t.Errorf("expected no output for an unknown id, got %q", buf.String())
	}
}
