// Package tui provides the terminal prompts of tpsheet: the start-date
// confirmation and the first-run configuration wizard.
package tui

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xolan/tpsheet/internal/config"
	"github.com/xolan/tpsheet/internal/sanity"
	"github.com/xolan/tpsheet/internal/tui/ui"
)

// ErrCancelled is returned when the wizard is left without saving.
var ErrCancelled = errors.New("setup cancelled")

// Confirm returns a sanity.ConfirmFunc that shows the prompt on out and
// reads the answer from in. A prompt that cannot run declines.
func Confirm(in io.Reader, out io.Writer) sanity.ConfirmFunc {
	return func(p sanity.Prompt) bool {
		final, err := run(NewConfirmModel(p, ui.DefaultStyles(), ui.DefaultKeyMap()), in, out)
		if err != nil {
			return false
		}
		m, ok := final.(ConfirmModel)
		return ok && m.Accepted()
	}
}

// RunWizard asks for the settings a first run needs, starting from base.
func RunWizard(base config.Config, in io.Reader, out io.Writer) (config.Config, error) {
	final, err := run(NewWizardModel(base, ui.DefaultStyles(), ui.DefaultKeyMap()), in, out)
	if err != nil {
		return config.Config{}, err
	}
	m, ok := final.(WizardModel)
	if !ok || !m.Done() {
		return config.Config{}, ErrCancelled
	}
	return m.Result(), nil
}

func run(model tea.Model, in io.Reader, out io.Writer) (tea.Model, error) {
	p := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out))
	return p.Run()
}
