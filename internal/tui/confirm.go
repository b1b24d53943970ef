package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xolan/tpsheet/internal/sanity"
	"github.com/xolan/tpsheet/internal/timeutil"
	"github.com/xolan/tpsheet/internal/tui/ui"
)

// ConfirmModel asks whether to go ahead with a start date outside the
// sanity window. Anything but an explicit yes declines.
type ConfirmModel struct {
	prompt sanity.Prompt
	styles ui.Styles
	keys   ui.KeyMap

	answered bool
	accepted bool
}

// NewConfirmModel creates a prompt for p.
func NewConfirmModel(p sanity.Prompt, styles ui.Styles, keys ui.KeyMap) ConfirmModel {
	return ConfirmModel{prompt: p, styles: styles, keys: keys}
}

// Init implements tea.Model
func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.answered {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Yes):
		m.answered, m.accepted = true, true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.No),
		key.Matches(keyMsg, m.keys.Select),
		key.Matches(keyMsg, m.keys.Back),
		key.Matches(keyMsg, m.keys.Quit):
		m.answered = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model
func (m ConfirmModel) View() string {
	if m.answered {
		if m.accepted {
			return m.styles.Success.Render("Continuing.") + "\n"
		}
		return m.styles.Warning.Render("Aborted.") + "\n"
	}

	direction := "ago"
	if m.prompt.Future() {
		direction = "from now"
	}

	var b strings.Builder
	b.WriteString(m.styles.DialogTitle.Render("Start date looks far off"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s is %d days %s (today is %s).\n",
		m.styles.Value.Render(m.prompt.Date.Format(timeutil.DateLayout)),
		m.prompt.Distance, direction,
		m.prompt.Today.Format(timeutil.DateLayout))
	fmt.Fprintf(&b, "Dates more than %d days away need confirmation.\n\n", m.prompt.RangeDays)
	b.WriteString("Submit anyway? ")
	b.WriteString(m.styles.KeyHelp("y", "yes"))
	b.WriteString("  ")
	b.WriteString(m.styles.KeyHelp("N", "no"))

	return m.styles.Dialog.Render(b.String()) + "\n"
}

// Answered reports whether a key settled the prompt.
func (m ConfirmModel) Answered() bool {
	return m.answered
}

// Accepted reports whether the user said yes.
func (m ConfirmModel) Accepted() bool {
	return m.accepted
}
