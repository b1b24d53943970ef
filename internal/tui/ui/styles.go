package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains the styles used by the prompts and the CLI output
type Styles struct {
	// Base styles
	App   lipgloss.Style
	Title lipgloss.Style
	Muted lipgloss.Style

	// Key/value listings (config show, run summary)
	Label lipgloss.Style
	Value lipgloss.Style

	// Day rows
	Date    lipgloss.Style
	Hours   lipgloss.Style
	Holiday lipgloss.Style
	Weekend lipgloss.Style

	// Help
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	// Input
	Input        lipgloss.Style
	InputFocused lipgloss.Style
	InputLabel   lipgloss.Style

	// Dialog
	Dialog      lipgloss.Style
	DialogTitle lipgloss.Style

	// Errors and warnings
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
}

// DefaultStyles returns the default styles
func DefaultStyles() Styles {
	// Color palette
	primary := lipgloss.Color("99")     // Purple
	secondary := lipgloss.Color("39")   // Cyan
	accent := lipgloss.Color("212")     // Pink
	muted := lipgloss.Color("240")      // Gray
	text := lipgloss.Color("252")       // Light gray
	success := lipgloss.Color("82")     // Green
	warning := lipgloss.Color("214")    // Orange
	errorColor := lipgloss.Color("196") // Red

	return Styles{
		App: lipgloss.NewStyle().Padding(1, 2),
		Title: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(muted),

		Label: lipgloss.NewStyle().
			Foreground(muted).
			Width(18),
		Value: lipgloss.NewStyle().
			Foreground(text).
			Bold(true),

		Date: lipgloss.NewStyle().
			Foreground(secondary).
			Width(12),
		Hours: lipgloss.NewStyle().
			Foreground(accent).
			Width(4).
			Align(lipgloss.Right),
		Holiday: lipgloss.NewStyle().
			Foreground(warning),
		Weekend: lipgloss.NewStyle().
			Foreground(muted),

		HelpKey: lipgloss.NewStyle().
			Foreground(secondary).
			Bold(true),
		HelpDesc: lipgloss.NewStyle().
			Foreground(muted),

		Input: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		InputFocused: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(primary).
			Padding(0, 1),
		InputLabel: lipgloss.NewStyle().
			Foreground(secondary),

		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(1, 2).
			Width(60),
		DialogTitle: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true).
			MarginBottom(1),

		Error: lipgloss.NewStyle().
			Foreground(errorColor),
		Warning: lipgloss.NewStyle().
			Foreground(warning),
		Success: lipgloss.NewStyle().
			Foreground(success),
	}
}

// KeyHelp renders "key desc" for a status line.
func (s Styles) KeyHelp(key, desc string) string {
	return s.HelpKey.Render(key) + " " + s.HelpDesc.Render(desc)
}
