// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"

	"github.com/danielcregg/aws2023-wp/internal/issue"
)

// ErrNoPasswordSource indicates the database password was neither configured
// nor resolvable interactively.
var ErrNoPasswordSource = errors.New("no database password available")

// PasswordSource resolves the WordPress database user's password exactly
// once and caches it for every step that needs it. A configured password is
// used as-is; an empty one falls back to the prompt, which runs at most once
// per provisioning run.
type PasswordSource struct {
	prompt   func() (string, error)
	value    string
	resolved bool
}

// NewPasswordSource creates a source seeded with the configured password.
// When configured is empty, prompt supplies the value on first use.
func NewPasswordSource(configured string, prompt func() (string, error)) *PasswordSource {
	return &PasswordSource{
		prompt:   prompt,
		value:    configured,
		resolved: configured != "",
	}
}

// Get returns the password, prompting on first use when none was configured.
func (p *PasswordSource) Get() (string, error) {
	if p.resolved {
		return p.value, nil
	}

	var (
		value string
		err   error
	)
	if p.prompt == nil {
		err = ErrNoPasswordSource
	} else {
		value, err = p.prompt()
	}
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("resolve database password").
			WithSuggestion("Set database.password in the config file").
			WithSuggestion("Or set the WPSTACK_DATABASE_PASSWORD environment variable").
			WithSuggestion("Or run from an interactive terminal to be prompted").
			Wrap(err).
			BuildError()
	}

	p.value = value
	p.resolved = true
	return value, nil
}
