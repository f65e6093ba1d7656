package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingopad/internal/quiz"
	"github.com/abhisek/lingopad/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. Options are picked with the
// arrow keys or by pressing their letter.
type MultiChoice struct {
	Question     string
	Options      []string
	CorrectIndex int // -1 when the answer key could not be resolved
	Selected     int
	Submitted    bool
	ChosenIndex  int
}

// NewMultiChoice creates a selector for a multiple-choice item.
func NewMultiChoice(it quiz.Item) MultiChoice {
	correct, ok := it.CorrectOption()
	if !ok {
		correct = -1
	}
	return MultiChoice{
		Question:     it.Question,
		Options:      it.Options,
		CorrectIndex: correct,
		ChosenIndex:  -1,
	}
}

// Update handles keyboard navigation and selection.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		m.Submitted = true
		m.ChosenIndex = m.Selected
	default:
		if len(key) == 1 {
			if i := int(strings.ToLower(key)[0] - 'a'); i >= 0 && i < len(m.Options) {
				m.Selected = i
			}
		}
	}

	return m, nil
}

// Answer is the chosen option's letter, or "" before submission.
func (m MultiChoice) Answer() string {
	if !m.Submitted || m.ChosenIndex < 0 {
		return ""
	}
	return quiz.Letter(m.ChosenIndex)
}

// View renders the selector. After submission the correct option is green
// and a wrong choice red.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Question))
	b.WriteString("\n\n")

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Submitted {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, quiz.Letter(i), opt)

		style := theme.Unselected
		switch {
		case m.Submitted && i == m.CorrectIndex:
			style = theme.Correct
		case m.Submitted && i == m.ChosenIndex:
			style = theme.Incorrect
		case m.Submitted:
			style = theme.Subtitle
		case i == m.Selected:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	return b.String()
}
