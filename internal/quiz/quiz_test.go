package quiz

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/lingopad/internal/capability"
	"github.com/abhisek/lingopad/internal/llm"
)

const wellFormed = `[
  {"type": "mcq", "question": "What does 'hola' mean?", "options": ["Goodbye", "Hello", "Thanks", "Please"], "answer": "B"},
  {"type": "mcq", "question": "What does 'gracias' mean?", "options": ["Thanks", "Sorry", "Yes", "No"], "answer": "Thanks"},
  {"type": "fill", "question": "Buenos ____ (Good morning)", "answer": "días"}
]`

func newSynth(t *testing.T, responses ...llm.MockResponse) (*Synthesizer, *llm.MockProvider) {
	t.Helper()
	mock := llm.NewMockProvider(responses...)
	adapter, err := capability.NewAdapter(capability.NewLLMService(mock), capability.Resolve(mock, nil), capability.Config{})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	return NewSynthesizer(adapter, nil), mock
}

func TestGenerate_ProseWrapped(t *testing.T) {
	s, mock := newSynth(t, llm.TextResponse("Sure! "+wellFormed+" Hope that helps"))

	q, err := s.Generate(context.Background(), "Hola, gracias, buenos días.", "es")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q) != 3 {
		t.Fatalf("expected 3 items, got %d", len(q))
	}
	if q[0].Kind != MultipleChoice || q[1].Kind != MultipleChoice || q[2].Kind != FillBlank {
		t.Fatalf("items out of order: %+v", q)
	}
	if q[2].Answer != "días" {
		t.Fatalf("unexpected fill answer %q", q[2].Answer)
	}

	if mock.CallCount() != 1 {
		t.Fatalf("expected exactly one model call, got %d", mock.CallCount())
	}
	prompt := mock.LastCall().Messages[0].Content
	for _, want := range []string{"learn es", "Hola, gracias", "2 multiple-choice", "1 fill-in-the-blank"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no brackets", `{"type": "fill", "question": "x", "answer": "y"}`},
		{"unbalanced", `Here: [ {"type": "fill", "question": "x", "answer": "y"} `},
		{"reversed", `] nothing [`},
		{"broken json", `[ {"type": "fill", "question": "x", } ]`},
		{"missing answer", `[ {"type": "fill", "question": "x"} ]`},
		{"empty question", `[ {"type": "fill", "question": "  ", "answer": "y"} ]`},
		{"three options", `[ {"type": "mcq", "question": "x", "options": ["a","b","c"], "answer": "A"} ]`},
		{"answer matches nothing", `[ {"type": "mcq", "question": "x", "options": ["uno","dos","tres","cuatro"], "answer": "cinco"} ]`},
		{"unknown type", `[ {"type": "essay", "question": "x", "answer": "y"} ]`},
		{"empty array", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSynth(t, llm.TextResponse(tt.raw))
			_, err := s.Generate(context.Background(), "some text", "es")

			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("expected *GenerationError, got %T: %v", err, err)
			}
		})
	}
}

func TestGenerate_ModelFailureIsGenerationError(t *testing.T) {
	s, _ := newSynth(t, llm.MockResponse{Err: errors.New("boom")})

	_, err := s.Generate(context.Background(), "text", "ja")
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *GenerationError, got %T", err)
	}
	var capErr *capability.Error
	if !errors.As(err, &capErr) {
		t.Fatalf("expected capability cause to be preserved, got %v", err)
	}
}

func TestGenerate_EmptyTextSkipsModel(t *testing.T) {
	s, mock := newSynth(t)
	_, err := s.Generate(context.Background(), "   ", "es")

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *GenerationError, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Fatal("model must not be called for empty text")
	}
}

func TestGenerate_AcceptsOtherShapes(t *testing.T) {
	raw := `[{"type": "fill", "question": "Arigatou means ____", "answer": "thank you"}]`
	s, _ := newSynth(t, llm.TextResponse(raw))

	q, err := s.Generate(context.Background(), "ありがとう", "ja")
	if err != nil {
		t.Fatalf("shape mismatch should only be logged: %v", err)
	}
	if len(q) != 1 {
		t.Fatalf("expected 1 item, got %d", len(q))
	}
}

func TestCorrectOption(t *testing.T) {
	options := []string{"Goodbye", "Hello there", "Thanks", "Please"}

	tests := []struct {
		answer string
		want   int
		ok     bool
	}{
		{"B", 1, true},
		{"b.", 1, true},
		{" (c) ", 2, true},
		{"hello there", 1, true},
		{"Hello, there!", 1, true},
		{"B. Hello there", 1, true},
		{"D) please", 3, true},
		{"E", -1, false},
		{"Bonjour", -1, false},
		{"", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			got, ok := Item{Kind: MultipleChoice, Options: options, Answer: tt.answer}.CorrectOption()
			if got != tt.want || ok != tt.ok {
				t.Fatalf("CorrectOption(%q) = %d, %v; want %d, %v", tt.answer, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCorrectOption_LetterPrefixedOptions(t *testing.T) {
	it := Item{
		Kind:    MultipleChoice,
		Options: []string{"A. perro", "B. gato", "C. pájaro", "D. pez"},
		Answer:  "gato",
	}
	if got, ok := it.CorrectOption(); !ok || got != 1 {
		t.Fatalf("got %d, %v", got, ok)
	}
}

func TestCorrectOption_AmbiguousText(t *testing.T) {
	it := Item{Kind: MultipleChoice, Options: []string{"sí", "no", "Sí!", "tal vez"}, Answer: "sí"}
	if _, ok := it.CorrectOption(); ok {
		t.Fatal("an answer matching two options must not resolve")
	}
}

func TestCorrectOption_SingleLetterOptionText(t *testing.T) {
	it := Item{Kind: MultipleChoice, Options: []string{"en", "a", "de", "por"}, Answer: "a"}
	if got, ok := it.CorrectOption(); !ok || got != 1 {
		t.Fatalf("CorrectOption = %d, %v; want 1, true", got, ok)
	}

	it.Answer = "C"
	if got, ok := it.CorrectOption(); !ok || got != 2 {
		t.Fatalf("letter fallback = %d, %v; want 2, true", got, ok)
	}
}

func TestGrade(t *testing.T) {
	mcq := Item{Kind: MultipleChoice, Question: "hola?", Options: []string{"Goodbye", "Hello", "Thanks", "Please"}, Answer: "b."}
	fill := Item{Kind: FillBlank, Question: "Buenos ____", Answer: "Días"}
	article := Item{Kind: MultipleChoice, Question: "Vou ___ Lisboa", Options: []string{"en", "a", "de", "por"}, Answer: "a"}

	tests := []struct {
		name     string
		item     Item
		given    string
		correct  bool
		feedback string
	}{
		{"mcq by letter", mcq, "B", true, "Correct! (B. Hello)"},
		{"mcq by text", mcq, "hello", true, "Correct! (B. Hello)"},
		{"mcq wrong", mcq, "A", false, "Incorrect. Correct answer: B. Hello"},
		{"mcq blank", mcq, "", false, "Incorrect. Correct answer: B. Hello"},
		{"single-letter option picked by letter", article, "B", true, "Correct! (B. a)"},
		{"single-letter option, other letter", article, "A", false, "Incorrect. Correct answer: B. a"},
		{"single-letter option by text", article, "de", false, "Incorrect. Correct answer: B. a"},
		{"fill case-insensitive", fill, "  días ", true, "Correct!"},
		{"fill wrong", fill, "noches", false, "Incorrect. Correct answer: Días"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Grade(tt.item, tt.given)
			if r.Correct != tt.correct || r.Feedback != tt.feedback {
				t.Fatalf("Grade = %v %q; want %v %q", r.Correct, r.Feedback, tt.correct, tt.feedback)
			}
			if r.Given != tt.given {
				t.Fatalf("given not recorded: %q", r.Given)
			}
		})
	}
}

func TestScore(t *testing.T) {
	rs := []Response{{Correct: true}, {Correct: false}, {Correct: true}}
	if c, n := Score(rs); c != 2 || n != 3 {
		t.Fatalf("Score = %d/%d", c, n)
	}
}
