// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// keyCtrlC is the key string bubbletea reports for Ctrl+C.
const keyCtrlC = "ctrl+c"

// spinnerColor is the accent color for the spinner glyph.
const spinnerColor = "#7C3AED"

type (
	// Spinner displays a one-line activity indicator while an action runs.
	// It is decorative only: it carries no data, writes to stderr unless
	// configured otherwise, and is shut down before the action's result is
	// logged so the two never interleave.
	Spinner struct {
		out      io.Writer
		disabled bool
	}

	// SpinnerOption configures a Spinner.
	SpinnerOption func(*Spinner)

	// spinDoneMsg tells the model the action has finished.
	spinDoneMsg struct{}

	// spinModel animates a bubbles spinner until doneCh closes.
	spinModel struct {
		title   string
		spinner spinner.Model
		doneCh  <-chan struct{}
		done    bool
	}
)

// WithOutput directs the spinner at w instead of stderr.
func WithOutput(w io.Writer) SpinnerOption {
	return func(s *Spinner) {
		s.out = w
	}
}

// WithDisabled turns the spinner off entirely; Run then invokes actions bare.
func WithDisabled(disabled bool) SpinnerOption {
	return func(s *Spinner) {
		s.disabled = disabled
	}
}

// NewSpinner creates a Spinner with the given options.
func NewSpinner(opts ...SpinnerOption) *Spinner {
	s := &Spinner{
		out: os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run invokes action while displaying a spinner titled title. The spinner
// renders only when the output is an interactive terminal; otherwise the
// action runs bare. The action's error is returned unchanged. Rendering
// errors are swallowed: a broken terminal must not fail the action.
func (s *Spinner) Run(title string, action func() error) error {
	if s.disabled || !isTerminal(s.out) {
		return action()
	}

	doneCh := make(chan struct{})
	var actionErr error
	go func() {
		defer close(doneCh)
		actionErr = action()
	}()

	program := tea.NewProgram(newSpinModel(title, doneCh), tea.WithOutput(s.out))
	_, _ = program.Run()

	// Ctrl+C quits the spinner, not the action; wait either way.
	<-doneCh
	return actionErr
}

// newSpinModel builds the model with the shared spinner style.
func newSpinModel(title string, doneCh <-chan struct{}) spinModel {
	return spinModel{
		title: title,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(spinnerColor))),
		),
		doneCh: doneCh,
	}
}

// Init implements tea.Model.
func (m spinModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForSpinDone(m.doneCh),
	)
}

// Update implements tea.Model.
func (m spinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case spinDoneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == keyCtrlC {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model. Once done it renders nothing, which makes
// bubbletea clear the spinner line before the program exits.
func (m spinModel) View() string {
	if m.done {
		return ""
	}
	if m.title == "" {
		return m.spinner.View()
	}
	return m.spinner.View() + " " + m.title
}

// waitForSpinDone blocks until doneCh closes, then reports completion.
func waitForSpinDone(doneCh <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-doneCh
		return spinDoneMsg{}
	}
}

// isTerminal reports whether w is backed by an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
