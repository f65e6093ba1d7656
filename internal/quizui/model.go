// Package quizui is the terminal quiz: one question at a time, graded on
// submit, with a score card at the end.
package quizui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingopad/internal/quiz"
	"github.com/abhisek/lingopad/internal/ui/components"
	"github.com/abhisek/lingopad/internal/ui/layout"
	"github.com/abhisek/lingopad/internal/ui/theme"
)

// ErrAborted is returned by Run when the learner quits before finishing.
var ErrAborted = errors.New("quiz aborted")

type phase int

const (
	answering phase = iota
	feedback
	done
)

// Model is the bubbletea model for one quiz.
type Model struct {
	title     string
	items     quiz.Quiz
	index     int
	phase     phase
	responses []quiz.Response
	aborted   bool

	mc    components.MultiChoice
	input components.TextInput

	width, height int
}

// New creates a model over q. title is shown in the header.
func New(q quiz.Quiz, title string) Model {
	m := Model{title: title, items: q}
	if len(q) == 0 {
		m.phase = done
		return m
	}
	m.load()
	return m
}

func (m *Model) load() {
	it := m.items[m.index]
	if it.Kind == quiz.MultipleChoice {
		m.mc = components.NewMultiChoice(it)
		return
	}
	m.input = components.NewTextInput("type your answer", 120)
}

func (m Model) current() quiz.Item { return m.items[m.index] }

func (m Model) Init() tea.Cmd {
	if m.phase == answering && m.current().Kind != quiz.MultipleChoice {
		return m.input.Model.Focus()
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" || key == "esc" {
			m.aborted = m.phase != done
			return m, tea.Quit
		}
		switch m.phase {
		case answering:
			return m.updateAnswering(msg)
		case feedback:
			if key == "enter" || key == "space" || key == " " {
				return m.advance()
			}
		case done:
			if key == "enter" || key == "q" {
				return m, tea.Quit
			}
		}
		return m, nil
	}

	if m.phase == answering && m.current().Kind != quiz.MultipleChoice {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateAnswering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	it := m.current()

	if it.Kind == quiz.MultipleChoice {
		m.mc, _ = m.mc.Update(msg)
		if m.mc.Submitted {
			m.grade(m.mc.Answer())
		}
		return m, nil
	}

	if msg.String() == "enter" {
		if strings.TrimSpace(m.input.Value()) == "" {
			return m, nil
		}
		m.grade(m.input.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) grade(given string) {
	r := quiz.Grade(m.current(), given)
	m.responses = append(m.responses, r)
	if m.current().Kind != quiz.MultipleChoice {
		m.input.Submit(r.Correct)
	}
	m.phase = feedback
}

func (m Model) advance() (tea.Model, tea.Cmd) {
	if m.index+1 >= len(m.items) {
		m.phase = done
		return m, nil
	}
	m.index++
	m.phase = answering
	m.load()
	return m, m.Init()
}

// Responses returns the graded answers so far, in question order.
func (m Model) Responses() []quiz.Response { return m.responses }

// Finished reports whether every question was answered.
func (m Model) Finished() bool { return m.phase == done && !m.aborted }

func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m Model) render() string {
	width, height := m.width, m.height
	if width == 0 || height == 0 {
		width, height = 80, 24
	}
	if layout.IsTooSmall(width, height) {
		return theme.Hint.Render(fmt.Sprintf("Terminal too small. Resize to at least %d x %d.", layout.MinWidth, layout.MinHeight))
	}

	correct, _ := quiz.Score(m.responses)
	status := fmt.Sprintf("%d/%d correct", correct, len(m.items))
	header := layout.RenderHeader(m.title, status, width)
	footer := layout.RenderFooter(m.hints(), width)
	return layout.RenderFrame(header, m.body(width-4), footer, width, height)
}

func (m Model) hints() []layout.KeyHint {
	switch {
	case m.phase == done:
		return []layout.KeyHint{{Key: "Enter", Description: "Finish"}}
	case m.phase == feedback:
		return []layout.KeyHint{{Key: "Enter", Description: "Next"}, {Key: "Esc", Description: "Quit"}}
	case m.current().Kind == quiz.MultipleChoice:
		return []layout.KeyHint{{Key: "↑↓/A-D", Description: "Choose"}, {Key: "Enter", Description: "Submit"}, {Key: "Esc", Description: "Quit"}}
	default:
		return []layout.KeyHint{{Key: "Enter", Description: "Submit"}, {Key: "Esc", Description: "Quit"}}
	}
}

func (m Model) body(width int) string {
	if m.phase == done {
		return m.scoreCard()
	}

	var b strings.Builder
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Question %d of %d", m.index+1, len(m.items))))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width, 0))))
	b.WriteString("\n\n")

	it := m.current()
	if it.Kind == quiz.MultipleChoice {
		b.WriteString(m.mc.View())
	} else {
		b.WriteString(theme.Body.Bold(true).Render(it.Question))
		b.WriteString("\n\n")
		b.WriteString("Answer: " + m.input.View())
		b.WriteString("\n")
	}

	if m.phase == feedback {
		r := m.responses[len(m.responses)-1]
		b.WriteString("\n")
		if r.Correct {
			b.WriteString(theme.Correct.Render(r.Feedback))
		} else {
			b.WriteString(theme.Incorrect.Render(r.Feedback))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) scoreCard() string {
	if len(m.items) == 0 {
		return theme.Hint.Render("This quiz has no questions.")
	}
	correct, total := quiz.Score(m.responses)

	var b strings.Builder
	b.WriteString(theme.Title.Render("Quiz complete"))
	b.WriteString("\n\n")
	bar := components.NewProgressBar(fmt.Sprintf("%d of %d correct", correct, total), float64(correct)/float64(total), true, 50)
	b.WriteString(bar.View())
	b.WriteString("\n\n")
	for i, r := range m.responses {
		mark := theme.Correct.Render("✓")
		if !r.Correct {
			mark = theme.Incorrect.Render("✗")
		}
		b.WriteString(fmt.Sprintf("%s %d. %s\n", mark, i+1, r.Item.Question))
	}
	return b.String()
}

// Run shows the quiz full screen and returns the responses once the
// learner has answered every question. Quitting early returns the
// responses gathered so far with ErrAborted.
func Run(ctx context.Context, q quiz.Quiz, title string) ([]quiz.Response, error) {
	final, err := tea.NewProgram(New(q, title), tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, err
	}
	m := final.(Model)
	if !m.Finished() {
		return m.Responses(), ErrAborted
	}
	return m.Responses(), nil
}
