package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette
var (
	Primary   = lipgloss.Color("#7C3AED") // violet
	Secondary = lipgloss.Color("#0EA5E9") // sky
	Accent    = lipgloss.Color("#EAB308") // yellow
	Success   = lipgloss.Color("#10B981") // emerald
	Error     = lipgloss.Color("#EF4444") // red
	Text      = lipgloss.Color("#E5E7EB")
	TextDim   = lipgloss.Color("#9CA3AF")
	Border    = lipgloss.Color("#374151")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Language = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 2)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Confidence picks a bar color for a 0..1 skill confidence.
func Confidence(v float64) lipgloss.Style {
	switch {
	case v >= 0.75:
		return lipgloss.NewStyle().Background(Success)
	case v >= 0.4:
		return lipgloss.NewStyle().Background(Accent)
	default:
		return lipgloss.NewStyle().Background(Error)
	}
}
