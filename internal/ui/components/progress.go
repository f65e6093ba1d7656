package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingopad/internal/ui/theme"
)

// ProgressBar displays a horizontal bar for a 0..1 value.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int

	// LabelWidth pads the label so bars in a column line up. Zero uses
	// the label's own width.
	LabelWidth int

	// Fill overrides the filled segment style.
	Fill *lipgloss.Style
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		label := p.Label
		if pad := p.LabelWidth - lipgloss.Width(label); pad > 0 {
			label += strings.Repeat(" ", pad)
		}
		result += theme.Body.Render(label) + "  "
	}

	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6
	}

	barWidth := p.Width - lipgloss.Width(result) - percentWidth
	if barWidth < 4 {
		barWidth = 4
	}

	pct := min(max(p.Percent, 0), 1)
	filled := int(float64(barWidth) * pct)
	empty := barWidth - filled

	fill := lipgloss.NewStyle().Background(theme.Secondary)
	if p.Fill != nil {
		fill = *p.Fill
	}
	result += fill.Render(strings.Repeat(" ", filled))
	result += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", empty))

	if p.ShowPercent {
		result += theme.Subtitle.Render(fmt.Sprintf("  %3d%%", int(pct*100+0.5)))
	}

	return result
}
