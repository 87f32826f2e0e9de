// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

var (
	// ErrNoTerminal is returned when a prompt is required but stdin is not
	// an interactive terminal.
	ErrNoTerminal = errors.New("no terminal available for interactive prompt")
	// ErrEmptyPassword is returned when the user enters an empty password.
	ErrEmptyPassword = errors.New("password is empty")
	// ErrPasswordMismatch is returned when the confirmation entry differs.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

//nolint:gochecknoglobals // Test seams for prompting without a real terminal
var (
	isTerminalFn   = term.IsTerminal
	readPasswordFn = term.ReadPassword
)

// PromptPassword reads a password from the terminal with echo disabled.
// The prompt goes to stderr so stdout stays clean under redirection.
func PromptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminalFn(fd) {
		return "", ErrNoTerminal
	}

	fmt.Fprint(os.Stderr, prompt)
	pw, err := readPasswordFn(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if len(pw) == 0 {
		return "", ErrEmptyPassword
	}
	return string(pw), nil
}

// PromptNewPassword reads a password twice and verifies both entries match.
// Use it when the value creates a credential rather than checks one.
func PromptNewPassword(prompt string) (string, error) {
	first, err := PromptPassword(prompt)
	if err != nil {
		return "", err
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := readPasswordFn(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password confirmation: %w", err)
	}
	if first != string(second) {
		return "", ErrPasswordMismatch
	}
	return first, nil
}
