package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xolan/tpsheet/internal/config"
	"github.com/xolan/tpsheet/internal/tui/ui"
)

// Wizard field order.
const (
	fieldAPIKey = iota
	fieldLocale
	fieldDailyHours
	fieldTimezone
	fieldEmail
	fieldFormURL
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Clockify API key",
	"Locale tag",
	"Daily hours",
	"Timezone",
	"Email (optional)",
	"Form URL (optional)",
}

// WizardModel collects the settings a first run needs and builds a
// validated config from them.
type WizardModel struct {
	base   config.Config
	styles ui.Styles
	keys   ui.KeyMap

	inputs [fieldCount]textinput.Model
	focus  int
	err    error

	done      bool
	cancelled bool
	result    config.Config
}

// NewWizardModel creates a wizard prefilled from base.
func NewWizardModel(base config.Config, styles ui.Styles, keys ui.KeyMap) WizardModel {
	m := WizardModel{base: base, styles: styles, keys: keys}

	values := [fieldCount]string{
		base.APIKey,
		base.Locale,
		strconv.Itoa(base.DailyHours),
		base.Timezone,
		base.Email,
		base.FormURL,
	}
	placeholders := [fieldCount]string{
		"paste the key from your Clockify profile",
		"en_SG",
		"8",
		"Local or an IANA name such as Asia/Singapore",
		"me@example.com",
		"https://forms.example.com/timesheet",
	}
	limits := [fieldCount]int{100, 40, 2, 60, 100, 200}

	for i := range m.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = limits[i]
		in.Width = 50
		in.SetValue(values[i])
		m.inputs[i] = in
	}
	m.inputs[fieldAPIKey].EchoMode = textinput.EchoPassword
	m.inputs[fieldAPIKey].EchoCharacter = '•'
	m.inputs[fieldAPIKey].Focus()
	return m
}

// Init implements tea.Model
func (m WizardModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.done || m.cancelled {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Quit), key.Matches(keyMsg, m.keys.Back):
			m.cancelled = true
			return m, tea.Quit

		case key.Matches(keyMsg, m.keys.NextField), key.Matches(keyMsg, m.keys.Down):
			return m.moveFocus(1), textinput.Blink

		case key.Matches(keyMsg, m.keys.PrevField), key.Matches(keyMsg, m.keys.Up):
			return m.moveFocus(-1), textinput.Blink

		case key.Matches(keyMsg, m.keys.Select):
			if m.focus < fieldCount-1 {
				return m.moveFocus(1), textinput.Blink
			}
			cfg, err := m.build()
			if err != nil {
				m.err = err
				return m, nil
			}
			m.result = cfg
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m WizardModel) moveFocus(delta int) WizardModel {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount
	m.inputs[m.focus].Focus()
	return m
}

// build turns the current field values into a validated config.
func (m WizardModel) build() (config.Config, error) {
	cfg := m.base
	value := func(i int) string { return strings.TrimSpace(m.inputs[i].Value()) }

	cfg.APIKey = value(fieldAPIKey)
	if cfg.APIKey == "" {
		return config.Config{}, fmt.Errorf("an API key is required")
	}
	cfg.Locale = value(fieldLocale)
	hours, err := strconv.Atoi(value(fieldDailyHours))
	if err != nil {
		return config.Config{}, fmt.Errorf("daily hours must be a whole number, got %q", value(fieldDailyHours))
	}
	cfg.DailyHours = hours
	cfg.Timezone = value(fieldTimezone)
	cfg.Email = value(fieldEmail)
	cfg.FormURL = value(fieldFormURL)

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// View implements tea.Model
func (m WizardModel) View() string {
	if m.cancelled {
		return m.styles.Warning.Render("Cancelled; nothing was written.") + "\n"
	}
	if m.done {
		return m.styles.Success.Render("Configuration complete.") + "\n"
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("tpsheet setup"))
	b.WriteString("\n\n")
	for i := range m.inputs {
		b.WriteString(m.styles.InputLabel.Render(fieldLabels[i]))
		b.WriteString("\n")
		style := m.styles.Input
		if i == m.focus {
			style = m.styles.InputFocused
		}
		b.WriteString(style.Render(m.inputs[i].View()))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(strings.Join([]string{
		m.styles.KeyHelp("tab", "next"),
		m.styles.KeyHelp("enter", "next/save"),
		m.styles.KeyHelp("esc", "cancel"),
	}, "  "))
	b.WriteString("\n")
	return m.styles.App.Render(b.String())
}

// Done reports whether the wizard produced a config.
func (m WizardModel) Done() bool {
	return m.done
}

// Cancelled reports whether the user left without saving.
func (m WizardModel) Cancelled() bool {
	return m.cancelled
}

// Result returns the built config. Only meaningful when Done.
func (m WizardModel) Result() config.Config {
	return m.result
}

// Focused returns the index of the focused field.
func (m WizardModel) Focused() int {
	return m.focus
}
