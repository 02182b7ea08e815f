package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	header      lipgloss.Style
	panel       lipgloss.Style
	panelFocus  lipgloss.Style
	panelTitle  lipgloss.Style
	human       lipgloss.Style
	assistant   lipgloss.Style
	toolCall    lipgloss.Style
	toolResult  lipgloss.Style
	other       lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
	helpText    lipgloss.Style
	hint        lipgloss.Style
	selected    lipgloss.Style
	modal       lipgloss.Style
	modalTitle  lipgloss.Style
}

func newTheme() theme {
	accent := lipgloss.Color("#7aa2f7")
	green := lipgloss.Color("#9ece6a")
	orange := lipgloss.Color("#ff9e64")
	red := lipgloss.Color("#f7768e")
	muted := lipgloss.Color("#737aa2")
	text := lipgloss.Color("#c0caf5")

	return theme{
		header: lipgloss.NewStyle().
			Foreground(text).
			Bold(true).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted),
		panelFocus: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		panelTitle:  lipgloss.NewStyle().Foreground(accent).Bold(true),
		human:       lipgloss.NewStyle().Foreground(green).Bold(true),
		assistant:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		toolCall:    lipgloss.NewStyle().Foreground(orange),
		toolResult:  lipgloss.NewStyle().Foreground(muted),
		other:       lipgloss.NewStyle().Foreground(muted).Italic(true),
		status:      lipgloss.NewStyle().Foreground(accent),
		errorStatus: lipgloss.NewStyle().Foreground(red).Bold(true),
		helpText:    lipgloss.NewStyle().Foreground(muted),
		hint:        lipgloss.NewStyle().Foreground(orange).Bold(true),
		selected:    lipgloss.NewStyle().Foreground(green).Bold(true),
		modal: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(orange).
			Padding(1, 2),
		modalTitle: lipgloss.NewStyle().Foreground(orange).Bold(true),
	}
}
