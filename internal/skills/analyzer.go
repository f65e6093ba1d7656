// Package skills turns an answered quiz into a skill report.
package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/lingopad/internal/capability"
	"github.com/abhisek/lingopad/internal/llm"
	"github.com/abhisek/lingopad/internal/quiz"
)

// Record is the model's confidence that the learner has grasped a concept.
type Record struct {
	Concept    string  `json:"concept" yaml:"concept"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Report is the analysis of one quiz interaction. Concepts are unique.
type Report struct {
	LearnedSkills []Record `json:"learned_skills" yaml:"learned_skills"`
	SuggestedNext []string `json:"suggested_next" yaml:"suggested_next"`
}

// AnalysisError means no usable report came back. It is not fatal: callers
// save their entry without an analysis.
type AnalysisError struct {
	Reason string
	Err    error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("skill analysis failed: %s: %v", e.Reason, e.Err)
	}
	return "skill analysis failed: " + e.Reason
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Invoker runs a capability call.
type Invoker interface {
	Invoke(ctx context.Context, req capability.Request) (capability.Result, error)
}

// Analyzer asks the model which skills a quiz interaction demonstrates.
type Analyzer struct {
	capabilities Invoker
	log          *zap.Logger
}

// NewAnalyzer creates an Analyzer. log may be nil.
func NewAnalyzer(inv Invoker, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{capabilities: inv, log: log}
}

const analysisSystem = "You assess language learners from their quiz answers. You reply with a JSON object only."

// Analyze sends the answered questions to the model in one call. Every
// failure is an *AnalysisError.
func (a *Analyzer) Analyze(ctx context.Context, responses []quiz.Response) (*Report, error) {
	if len(responses) == 0 {
		return nil, &AnalysisError{Reason: "no answered questions"}
	}

	res, err := a.capabilities.Invoke(llm.WithPurpose(ctx, "skill-analysis"), capability.Request{
		Capability: capability.Prompt,
		Input:      buildPrompt(responses),
		Options:    capability.Options{SystemPrompt: analysisSystem},
	})
	if err != nil {
		return nil, &AnalysisError{Reason: "model call failed", Err: err}
	}

	report, err := Parse(res.String())
	if err != nil {
		a.log.Debug("unusable analysis response", zap.String("raw", res.String()), zap.Error(err))
		return nil, err
	}
	return report, nil
}

func buildPrompt(responses []quiz.Response) string {
	var b strings.Builder
	b.WriteString("A learner answered these quiz questions:\n\n")
	for i, r := range responses {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Item.Question)
		for j, opt := range r.Item.Options {
			fmt.Fprintf(&b, "   %s) %s\n", quiz.Letter(j), opt)
		}
		fmt.Fprintf(&b, "   Learner's answer: %s\n", r.Given)
		fmt.Fprintf(&b, "   Feedback: %s\n\n", r.Feedback)
	}
	b.WriteString(`Identify the language concepts the learner has practiced, each with a confidence between 0 and 1 that they have learned it, and suggest what to study next.
Return strictly this JSON and nothing else:
{"learned_skills":[{"concept":"...","confidence":0.8}],"suggested_next":["..."]}`)
	return b.String()
}

// Schema is the JSON shape an analysis response must have.
var Schema = &llm.Schema{
	Name:        "skill-analysis",
	Description: "Learned skills with confidence and suggested next topics",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"learned_skills"},
		"properties": map[string]any{
			"learned_skills": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"concept", "confidence"},
					"properties": map[string]any{
						"concept":    map[string]any{"type": "string", "minLength": 1},
						"confidence": map[string]any{"type": "number"},
					},
				},
			},
			"suggested_next": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	},
}

// Parse extracts a report from raw model output, reading only the span from
// the first '{' to the last '}'. A missing or non-numeric confidence fails
// the whole report; numeric confidences are kept as given, even outside
// [0, 1]. Missing suggestions read as none. Repeated concepts keep their
// first occurrence.
func Parse(raw string) (*Report, error) {
	span, ok := llm.ExtractObject(raw)
	if !ok {
		return nil, &AnalysisError{Reason: "no JSON object in response"}
	}
	if err := llm.ValidateJSON(Schema, []byte(span)); err != nil {
		return nil, &AnalysisError{Reason: "response does not match report shape", Err: err}
	}

	var r Report
	if err := json.Unmarshal([]byte(span), &r); err != nil {
		return nil, &AnalysisError{Reason: "decode report", Err: err}
	}

	seen := make(map[string]bool, len(r.LearnedSkills))
	skills := r.LearnedSkills[:0]
	for _, s := range r.LearnedSkills {
		s.Concept = strings.TrimSpace(s.Concept)
		if s.Concept == "" || seen[s.Concept] {
			continue
		}
		seen[s.Concept] = true
		skills = append(skills, s)
	}
	r.LearnedSkills = skills

	next := make([]string, 0, len(r.SuggestedNext))
	for _, s := range r.SuggestedNext {
		if s = strings.TrimSpace(s); s != "" {
			next = append(next, s)
		}
	}
	r.SuggestedNext = next
	return &r, nil
}
