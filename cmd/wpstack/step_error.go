// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"

	"github.com/danielcregg/aws2023-wp/internal/archive"
	"github.com/danielcregg/aws2023-wp/internal/config"
	"github.com/danielcregg/aws2023-wp/internal/fetch"
	"github.com/danielcregg/aws2023-wp/internal/issue"
	"github.com/danielcregg/aws2023-wp/internal/pkgmgr"
	"github.com/danielcregg/aws2023-wp/pkg/stepfile"
)

// classifyStepError maps a provisioning failure to an issue catalog ID and
// returns a styled message for CLI rendering. It preserves actionable error
// details; the catalog page adds recovery guidance on top.
func classifyStepError(stepName string, err error, verboseMode bool) (issueID issue.Id, styledMsg string) {
	issueID = sentinelIssue(err)
	if issueID == 0 {
		issueID = stepIssue(stepName, err)
	}

	return issueID, fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verboseMode))
}

// sentinelIssue matches well-known error values and operations anywhere in
// the chain. Returns 0 when nothing specific matches.
func sentinelIssue(err error) issue.Id {
	var ve stepfile.ValidationErrors

	switch {
	case errors.Is(err, pkgmgr.ErrNoPackageManager):
		return issue.PackageManagerNotFoundId
	case errors.Is(err, fetch.ErrTooLarge):
		return issue.DownloadFailedId
	case errors.Is(err, archive.ErrUnsafePath), errors.Is(err, archive.ErrSizeLimit),
		errors.Is(err, gzip.ErrHeader), errors.Is(err, gzip.ErrChecksum),
		errors.Is(err, tar.ErrHeader):
		return issue.ArchiveInvalidId
	case errors.As(err, &ve):
		return issue.StepFileParseErrorId
	case errors.Is(err, fs.ErrPermission):
		return issue.WebRootNotWritableId
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		switch ae.Operation {
		case "load step file":
			return issue.StepFileParseErrorId
		case "download WordPress", "download phpMyAdmin":
			return issue.DownloadFailedId
		case "extract WordPress archive", "extract phpMyAdmin archive":
			return issue.ArchiveInvalidId
		}
	}

	return 0
}

// stepIssue picks the page covering a step's usual failure mode once no
// sentinel matched. Custom steps fall through to the generic page.
func stepIssue(stepName string, err error) issue.Id {
	switch stepName {
	case "services", "restart-webserver":
		return issue.ServiceStartFailedId
	case "database":
		return issue.DatabaseUnreachableId
	case "phpini":
		if errors.Is(err, fs.ErrNotExist) {
			return issue.PHPIniNotFoundId
		}
	}

	return issue.StepFailedId
}

// renderIssue writes the catalog help page for id, styled for the configured
// color scheme. A page that fails to render is dropped rather than letting a
// styling problem mask the real error.
func renderIssue(w io.Writer, id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}

	rendered, err := entry.Render(issueStyle())
	if err != nil {
		log.Warn("failed to render issue catalog entry", "issueID", id, "error", err)
		return
	}
	fmt.Fprint(w, rendered)
}

// issueStyle resolves the glamour style from the configured color scheme,
// falling back to dark when the configuration itself cannot be loaded.
func issueStyle() string {
	cfg, err := config.Load()
	if err != nil || cfg == nil {
		return config.ColorSchemeDark.String()
	}
	return cfg.UI.ColorScheme.String()
}
