package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	user      lipgloss.Style
	assistant lipgloss.Style
	errorTurn lipgloss.Style
	status    lipgloss.Style
	pending   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		user: lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true).
			PaddingLeft(1),
		assistant: lipgloss.NewStyle().
			PaddingLeft(1),
		errorTurn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			PaddingLeft(1),
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			PaddingLeft(1),
	}
}
