package tui

import "github.com/charmbracelet/lipgloss"

var (
	blue   = lipgloss.Color("#1D9BF0")
	green  = lipgloss.Color("#00BA7C")
	red    = lipgloss.Color("#F4212E")
	yellow = lipgloss.Color("#FFD400")
	grey   = lipgloss.Color("#71767B")

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(blue).
			Bold(true).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1)

	statusStyle  = lipgloss.NewStyle().Foreground(yellow)
	successStyle = lipgloss.NewStyle().Foreground(green).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(red).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(grey)
	helpStyle    = lipgloss.NewStyle().Foreground(grey).Italic(true)
)
