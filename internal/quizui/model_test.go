package quizui

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/abhisek/lingopad/internal/quiz"
)

var sample = quiz.Quiz{
	{Kind: quiz.MultipleChoice, Question: "What does hola mean?", Options: []string{"A. Bye", "B. Hello", "C. Thanks", "D. Please"}, Answer: "B"},
	{Kind: quiz.MultipleChoice, Question: "What does gracias mean?", Options: []string{"Bye", "Hello", "Thanks", "Please"}, Answer: "Thanks"},
	{Kind: quiz.FillBlank, Question: "Buenos ____", Answer: "días"},
}

func press(m Model, keys ...tea.KeyPressMsg) Model {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func key(r rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: r, Text: string(r)} }

var (
	enter = tea.KeyPressMsg{Code: tea.KeyEnter}
	down  = tea.KeyPressMsg{Code: tea.KeyDown}
	esc   = tea.KeyPressMsg{Code: tea.KeyEscape}
)

func typeText(m Model, s string) Model {
	for _, r := range s {
		m = press(m, key(r))
	}
	return m
}

func TestFullQuiz(t *testing.T) {
	m := New(sample, "Spanish quiz")

	// Q1: letter jump then submit.
	m = press(m, key('b'), enter)
	if m.phase != feedback {
		t.Fatalf("phase = %v, want feedback", m.phase)
	}
	if !m.responses[0].Correct {
		t.Errorf("Q1 should be correct: %+v", m.responses[0])
	}
	m = press(m, enter)

	// Q2: arrow down once lands on "Hello", which is wrong.
	m = press(m, down, enter)
	if m.responses[1].Correct {
		t.Errorf("Q2 should be incorrect: %+v", m.responses[1])
	}
	if m.responses[1].Given != "B" {
		t.Errorf("Q2 given = %q, want B", m.responses[1].Given)
	}
	m = press(m, enter)

	// Q3: typed answer, case-insensitive.
	m = typeText(m, "Días")
	m = press(m, enter)
	if !m.responses[2].Correct {
		t.Errorf("Q3 should be correct: %+v", m.responses[2])
	}
	m = press(m, enter)

	if !m.Finished() {
		t.Fatalf("expected finished quiz, phase = %v", m.phase)
	}
	correct, total := quiz.Score(m.Responses())
	if correct != 2 || total != 3 {
		t.Errorf("score = %d/%d, want 2/3", correct, total)
	}

	out := ansi.Strip(m.render())
	if !strings.Contains(out, "Quiz complete") || !strings.Contains(out, "2 of 3 correct") {
		t.Errorf("score card missing:\n%s", out)
	}

	_, cmd := m.Update(enter)
	if cmd == nil {
		t.Fatal("expected quit command on finish")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestEmptyFillAnswerIgnored(t *testing.T) {
	m := New(quiz.Quiz{sample[2]}, "")
	m = press(m, enter)
	if m.phase != answering || len(m.responses) != 0 {
		t.Fatalf("blank answer should not be graded: phase=%v responses=%d", m.phase, len(m.responses))
	}
}

func TestFeedbackShown(t *testing.T) {
	m := New(quiz.Quiz{sample[0]}, "")
	m = press(m, key('a'), enter)

	out := ansi.Strip(m.render())
	if !strings.Contains(out, "Incorrect. Correct answer: B. Hello") {
		t.Errorf("feedback missing:\n%s", out)
	}
}

func TestEscAborts(t *testing.T) {
	m := New(sample, "")
	m = press(m, key('b'), enter, enter)

	next, cmd := m.Update(esc)
	m = next.(Model)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if m.Finished() {
		t.Error("aborted quiz reported finished")
	}
	if len(m.Responses()) != 1 {
		t.Errorf("responses = %d, want 1", len(m.Responses()))
	}
}

func TestEmptyQuiz(t *testing.T) {
	m := New(nil, "")
	if !m.Finished() {
		t.Error("empty quiz should be finished")
	}
	out := ansi.Strip(m.render())
	if !strings.Contains(out, "no questions") {
		t.Errorf("unexpected view:\n%s", out)
	}
}

func TestTooSmall(t *testing.T) {
	m := New(sample, "")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 5})
	out := ansi.Strip(next.(Model).render())
	if !strings.Contains(out, "Terminal too small") {
		t.Errorf("unexpected view:\n%s", out)
	}
}
