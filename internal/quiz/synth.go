package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/lingopad/internal/capability"
	"github.com/abhisek/lingopad/internal/llm"
)

// GenerationError means no usable quiz came back. Callers continue without
// a quiz and may ask again.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quiz generation failed: %s: %v", e.Reason, e.Err)
	}
	return "quiz generation failed: " + e.Reason
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Invoker runs a capability call.
type Invoker interface {
	Invoke(ctx context.Context, req capability.Request) (capability.Result, error)
}

// Synthesizer turns source text into a Quiz with one prompt call.
type Synthesizer struct {
	capabilities Invoker
	log          *zap.Logger
}

// NewSynthesizer creates a Synthesizer. log may be nil.
func NewSynthesizer(inv Invoker, log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{capabilities: inv, log: log}
}

const quizSystem = "You write short quizzes for language learners. You reply with a JSON array only, with no text before or after it."

const quizPrompt = `Create a short quiz to help a user learn %[1]s.
Use the following text as context: %[2]q.

Include:
- 2 multiple-choice questions about the meaning of phrases in %[1]s, each with 4 options and one correct answer
- 1 fill-in-the-blank question

Return valid JSON only, in this format:
[
  {"type": "mcq", "question": "...", "options": ["...", "...", "...", "..."], "answer": "A"},
  {"type": "mcq", "question": "...", "options": ["...", "...", "...", "..."], "answer": "..."},
  {"type": "fill", "question": "... ____ ...", "answer": "..."}
]`

// Generate asks the model for a quiz about text in targetLanguage. It makes
// exactly one call and never retries; every failure is a *GenerationError.
func (s *Synthesizer) Generate(ctx context.Context, text, targetLanguage string) (Quiz, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &GenerationError{Reason: "no source text"}
	}
	if targetLanguage == "" {
		targetLanguage = "en"
	}

	res, err := s.capabilities.Invoke(llm.WithPurpose(ctx, "quiz-gen"), capability.Request{
		Capability: capability.Prompt,
		Input:      fmt.Sprintf(quizPrompt, targetLanguage, text),
		Options:    capability.Options{SystemPrompt: quizSystem},
	})
	if err != nil {
		return nil, &GenerationError{Reason: "model call failed", Err: err}
	}

	q, err := Parse(res.String())
	if err != nil {
		s.log.Debug("unusable quiz response", zap.String("raw", res.String()), zap.Error(err))
		return nil, err
	}

	if mcq, fill := q.Counts(); mcq != 2 || fill != 1 {
		s.log.Warn("quiz does not have the requested shape",
			zap.Int("mcq", mcq), zap.Int("fill", fill))
	}
	return q, nil
}

// Schema is the JSON shape a quiz response must have.
var Schema = &llm.Schema{
	Name:        "quiz",
	Description: "Multiple-choice and fill-in-the-blank quiz items",
	Definition: map[string]any{
		"type":     "array",
		"minItems": 1,
		"items": map[string]any{
			"type":     "object",
			"required": []any{"type", "question", "answer"},
			"properties": map[string]any{
				"type":     map[string]any{"type": "string", "enum": []any{"mcq", "fill"}},
				"question": map[string]any{"type": "string", "minLength": 1},
				"options": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"answer": map[string]any{"type": "string", "minLength": 1},
			},
		},
	},
}

// Parse extracts a quiz from raw model output. Only the span from the first
// '[' to the last ']' is read, so prose around the array is tolerated.
func Parse(raw string) (Quiz, error) {
	span, ok := llm.ExtractArray(raw)
	if !ok {
		return nil, &GenerationError{Reason: "no JSON array in response"}
	}
	if err := llm.ValidateJSON(Schema, []byte(span)); err != nil {
		return nil, &GenerationError{Reason: "response does not match quiz shape", Err: err}
	}

	var q Quiz
	if err := json.Unmarshal([]byte(span), &q); err != nil {
		return nil, &GenerationError{Reason: "decode quiz", Err: err}
	}

	for i := range q {
		it := &q[i]
		it.Question = strings.TrimSpace(it.Question)
		it.Answer = strings.TrimSpace(it.Answer)
		if it.Question == "" || it.Answer == "" {
			return nil, &GenerationError{Reason: fmt.Sprintf("item %d: missing question or answer", i+1)}
		}

		switch it.Kind {
		case MultipleChoice:
			if len(it.Options) != 4 {
				return nil, &GenerationError{Reason: fmt.Sprintf("item %d: multiple choice needs 4 options, got %d", i+1, len(it.Options))}
			}
			if _, ok := it.CorrectOption(); !ok {
				return nil, &GenerationError{Reason: fmt.Sprintf("item %d: answer %q matches no single option", i+1, it.Answer)}
			}
		case FillBlank:
			it.Options = nil
		}
	}
	return q, nil
}
