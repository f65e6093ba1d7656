package layout

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingopad/internal/ui/theme"
)

const (
	MinWidth  = 40
	MinHeight = 12
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderHeader renders the app name, a centered title and a right-aligned
// status such as the score.
func RenderHeader(title, status string, width int) string {
	left := theme.Title.Render("lingopad")
	center := theme.Body.Render(title)
	right := lipgloss.NewStyle().Foreground(theme.Accent).Render(status)

	innerWidth := max(width-4, 0)
	leftLen, centerLen, rightLen := lipgloss.Width(left), lipgloss.Width(center), lipgloss.Width(right)

	leftGap := max((innerWidth-centerLen)/2-leftLen, 1)
	rightGap := max(innerWidth-leftLen-leftGap-centerLen-rightLen, 1)

	content := left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right
	return theme.Card.Width(width).Padding(0, 1).Render(content)
}

// RenderFooter renders the footer with key hints.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Key)+
			" "+theme.Subtitle.Render(h.Description))
	}
	return theme.Card.Width(width).Padding(0, 1).Render(strings.Join(parts, "   "))
}

// RenderFrame stacks header, content and footer, sizing the content to
// fill the remaining height.
func RenderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	styled := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		Padding(1, 2).
		Render(content)
	return header + "\n" + styled + "\n" + footer
}
