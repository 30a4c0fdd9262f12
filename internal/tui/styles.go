package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#10b981")
	muted  = lipgloss.Color("245")
	warn   = lipgloss.Color("#fb7185")

	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(muted)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)

	userBubble = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)

	assistantBubble = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1).
			MarginLeft(2)

	cardTitle  = lipgloss.NewStyle().Bold(true)
	linkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6ee7b7")).Underline(true)
	errorStyle = lipgloss.NewStyle().Foreground(warn)
)

func statusDot(status string) lipgloss.Style {
	switch status {
	case "online":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981"))
	case "checking":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#fbbf24"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#f43f5e"))
	}
}
