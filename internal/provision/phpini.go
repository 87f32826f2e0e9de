// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/danielcregg/aws2023-wp/internal/config"
	"github.com/danielcregg/aws2023-wp/internal/fsutil"
	"github.com/danielcregg/aws2023-wp/internal/issue"
)

// Compile-time interface check
var _ Step = (*PHPIniStep)(nil)

type (
	// PHPIniStep ensures php.ini carries the configured runtime settings.
	// Edits replace existing directive lines in place (or uncomment a
	// commented one, or append) and rewrite the file atomically, preserving
	// its permissions.
	PHPIniStep struct {
		path       string
		directives []iniDirective
	}

	// iniDirective is one desired php.ini setting.
	iniDirective struct {
		name  string
		value string
	}
)

// NewPHPIniStep creates the step from the PHP tuning configuration.
func NewPHPIniStep(cfg config.PHPConfig) *PHPIniStep {
	return &PHPIniStep{
		path: cfg.IniPath.String(),
		directives: []iniDirective{
			{name: "upload_max_filesize", value: cfg.UploadMaxFilesize},
			{name: "post_max_size", value: cfg.PostMaxSize},
			{name: "memory_limit", value: cfg.MemoryLimit},
			{name: "max_execution_time", value: cfg.MaxExecutionTime},
		},
	}
}

// Name implements Step.
func (s *PHPIniStep) Name() string { return "phpini" }

// Summary implements Step.
func (s *PHPIniStep) Summary() string { return "Tune php.ini settings" }

// Check reports whether every directive already carries its desired value.
func (s *PHPIniStep) Check(_ context.Context) (bool, error) {
	content, err := s.read()
	if err != nil {
		return false, err
	}
	for _, d := range s.directives {
		if current, ok := directiveValue(content, d.name); !ok || current != d.value {
			return false, nil
		}
	}
	return true, nil
}

// Apply rewrites the file with every directive set to its desired value.
func (s *PHPIniStep) Apply(_ context.Context) error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", s.path, err)
	}
	content, err := s.read()
	if err != nil {
		return err
	}

	for _, d := range s.directives {
		content = setDirective(content, d.name, d.value)
	}

	if err := fsutil.WriteFileAtomic(s.path, []byte(content), info.Mode().Perm()); err != nil {
		return fmt.Errorf("updating %s: %w", s.path, err)
	}
	return nil
}

func (s *PHPIniStep) read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", issue.NewErrorContext().
				WithOperation("tune php.ini").
				WithResource(s.path).
				WithSuggestion("Ensure the php package is installed").
				WithSuggestion("Or set php.ini_path to where your PHP build keeps php.ini").
				Wrap(err).
				BuildError()
		}
		return "", fmt.Errorf("reading %s: %w", s.path, err)
	}
	return string(data), nil
}

// directiveValue returns the effective value of name in the ini content.
// Later assignments override earlier ones, matching how PHP reads the file.
func directiveValue(content, name string) (value string, found bool) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(k) != name {
			continue
		}
		value = strings.TrimSpace(v)
		found = true
	}
	return value, found
}

// setDirective rewrites every active assignment of name to the desired
// value. With no active assignment it uncomments the first commented one,
// and with neither it appends the directive at the end of the file.
func setDirective(content, name, value string) string {
	line := name + " = " + value

	activeRe := regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(name) + `[ \t]*=.*$`)
	if activeRe.MatchString(content) {
		return activeRe.ReplaceAllString(content, line)
	}

	commentedRe := regexp.MustCompile(`(?m)^[ \t]*;[ \t]*` + regexp.QuoteMeta(name) + `[ \t]*=.*$`)
	if loc := commentedRe.FindStringIndex(content); loc != nil {
		return content[:loc[0]] + line + content[loc[1]:]
	}

	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + line + "\n"
}
