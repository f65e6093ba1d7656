package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingopad/internal/ui/theme"
)

// TextInput wraps bubbles/textinput for fill-in answers.
type TextInput struct {
	Model     textinput.Model
	submitted bool
	valid     bool
}

// NewTextInput creates a focused text input.
func NewTextInput(placeholder string, maxChars int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	if maxChars > 0 {
		ti.CharLimit = maxChars
	}
	return TextInput{Model: ti}
}

// Update forwards messages until the input is submitted.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.submitted {
		return t, nil
	}
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the input with a mark once graded.
func (t TextInput) View() string {
	view := t.Model.View()
	if t.submitted {
		if t.valid {
			view += " " + lipgloss.NewStyle().Foreground(theme.Success).Render("✓")
		} else {
			view += " " + lipgloss.NewStyle().Foreground(theme.Error).Render("✗")
		}
	}
	return view
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// Submit marks the input as graded.
func (t *TextInput) Submit(valid bool) {
	t.submitted = true
	t.valid = valid
	t.Model.Blur()
}
