// SPDX-License-Identifier: MPL-2.0

// Package stepfile loads custom provisioning steps from CUE files.
//
// A step file (wpsteps.cue by convention) contributes ordered steps that
// run after the built-in stack is provisioned. Content is validated
// against an embedded CUE schema, then structurally checked for
// constraints the schema cannot express, such as name uniqueness.
package stepfile

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/danielcregg/aws2023-wp/pkg/cueutil"
)

//go:embed stepfile_schema.cue
var stepfileSchema string

// DefaultFileName is the conventional step file name discovered in the
// working directory when no explicit path is configured.
const DefaultFileName = "wpsteps.cue"

// stepNameRe mirrors the #StepName schema constraint for structural
// validation of decoded values.
var stepNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

type (
	// StepName identifies a step in logs and receipts.
	StepName string

	// Step is one custom provisioning step.
	Step struct {
		// Name uniquely identifies the step within the file.
		Name StepName `json:"name"`

		// Summary is an optional one-line description for the UI.
		Summary string `json:"summary,omitempty"`

		// Check is an optional probe script; exit status zero means the
		// step is already satisfied.
		Check string `json:"check,omitempty"`

		// Creates is an optional sentinel path; its existence means the
		// step is already satisfied.
		Creates string `json:"creates,omitempty"`

		// Script applies the step.
		Script string `json:"script"`

		// Env holds environment variables exported to both scripts.
		Env map[string]string `json:"env,omitempty"`
	}

	// File is a parsed step file.
	File struct {
		// Steps run in file order.
		Steps []Step `json:"steps"`

		// FilePath records where the file was loaded from. It is set by
		// the parser and is not part of the schema.
		FilePath string `json:"-"`
	}

	// ValidationErrors collects all structural problems found in a file,
	// so users can fix everything in one pass.
	ValidationErrors []error
)

// String returns the string representation of the StepName.
func (n StepName) String() string { return string(n) }

// Error implements the error interface by joining all collected problems.
func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, err := range ve {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Parse reads and parses a step file from the given path.
func Parse(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read step file at %s: %w", path, err)
	}

	return ParseBytes(data, path)
}

// ParseBytes parses step file content from bytes.
// Uses cueutil.ParseAndDecodeString for the 3-step CUE parsing flow:
// compile schema → compile user data → validate and decode.
func ParseBytes(data []byte, path string) (*File, error) {
	result, err := cueutil.ParseAndDecodeString[File](
		stepfileSchema,
		data,
		"#Steps",
		cueutil.WithFilename(path),
	)
	if err != nil {
		return nil, err
	}

	f := result.Value
	f.FilePath = path

	if errs := f.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return f, nil
}

// Validate checks constraints the schema cannot express. It collects all
// problems instead of stopping at the first one.
func (f *File) Validate() ValidationErrors {
	var errs ValidationErrors

	seen := make(map[StepName]bool, len(f.Steps))
	for i, step := range f.Steps {
		if !stepNameRe.MatchString(string(step.Name)) {
			errs = append(errs, fmt.Errorf("step %d: invalid name %q: must match [a-z0-9][a-z0-9-]*", i+1, step.Name))
		}
		if seen[step.Name] {
			errs = append(errs, fmt.Errorf("step %d: duplicate name %q", i+1, step.Name))
		}
		seen[step.Name] = true

		if strings.TrimSpace(step.Script) == "" {
			errs = append(errs, fmt.Errorf("step %q: script must not be blank", step.Name))
		}
	}

	return errs
}
