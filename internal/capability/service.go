package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/lingopad/internal/llm"
)

// Service is the engine contract the adapter drives. Implementations do no
// defaulting or availability checks of their own.
type Service interface {
	// DetectLanguage returns candidate languages in any order.
	DetectLanguage(ctx context.Context, text string) ([]Detection, error)
	Translate(ctx context.Context, text, source, target string) (string, error)
	Summarize(ctx context.Context, text string, opts Options) (string, error)
	Rewrite(ctx context.Context, text string, opts Options) (string, error)
	Write(ctx context.Context, prompt string, opts Options) (string, error)
	Prompt(ctx context.Context, text string, opts Options) (string, error)
}

// LLMService implements Service by shaping a prompt per capability and
// sending it to a Provider.
type LLMService struct {
	provider llm.Provider
}

// NewLLMService wraps p.
func NewLLMService(p llm.Provider) *LLMService {
	return &LLMService{provider: p}
}

var detectionSchema = &llm.Schema{
	Name:        "language-detection",
	Description: "Candidate languages for a text with confidence scores",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"candidates"},
		"properties": map[string]any{
			"candidates": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"language", "confidence"},
					"properties": map[string]any{
						"language":   map[string]any{"type": "string", "minLength": 2},
						"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					},
				},
			},
		},
	},
}

const detectSystem = `You identify the language of a text.
Return up to three candidate languages as ISO 639-1 codes (for example "en", "es", "ja") with a confidence between 0 and 1.
Respond with JSON only: {"candidates":[{"language":"es","confidence":0.97}]}`

func (s *LLMService) DetectLanguage(ctx context.Context, text string) ([]Detection, error) {
	req := llm.UserPrompt(detectSystem, text)
	req.Schema = detectionSchema
	req.MaxTokens = 256

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var out struct {
		Candidates []Detection `json:"candidates"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("decode detection: %w", err)
	}
	for i := range out.Candidates {
		out.Candidates[i].Language = strings.ToLower(strings.TrimSpace(out.Candidates[i].Language))
	}
	return out.Candidates, nil
}

func (s *LLMService) Translate(ctx context.Context, text, source, target string) (string, error) {
	system := fmt.Sprintf(`You are a translator. Translate the user's text from %q to %q.
Keep names, numbers and formatting. Reply with the translation only, without quotes or commentary.`, source, target)
	req := llm.UserPrompt(system, text)
	req.Temperature = 0.1
	return s.text(ctx, req)
}

func (s *LLMService) Summarize(ctx context.Context, text string, opts Options) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the user's text as %s. Length: %s. Format: %s.", opts.Type, opts.Length, opts.Format)
	if opts.OutputLanguage != "" {
		fmt.Fprintf(&b, " Write the summary in %q.", opts.OutputLanguage)
	}
	writeContext(&b, opts)
	b.WriteString("\nReply with the summary only.")

	req := llm.UserPrompt(b.String(), text)
	req.Temperature = 0.3
	return s.text(ctx, req)
}

func (s *LLMService) Rewrite(ctx context.Context, text string, opts Options) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite the user's text. Tone: %s. Length: %s. Format: %s.",
		describe(opts.Tone, "keep the original tone"), describe(opts.Length, "keep the original length"), opts.Format)
	fmt.Fprintf(&b, " Write the result in %q.", opts.OutputLanguage)
	if len(opts.ExpectedInputLanguages) > 0 {
		fmt.Fprintf(&b, " The input is expected to be in %s.", strings.Join(opts.ExpectedInputLanguages, ", "))
	}
	writeContext(&b, opts)
	b.WriteString("\nReply with the rewritten text only.")

	req := llm.UserPrompt(b.String(), text)
	req.Temperature = 0.3
	return s.text(ctx, req)
}

func (s *LLMService) Write(ctx context.Context, prompt string, opts Options) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Write new text for the user's request. Tone: %s. Length: %s. Format: %s.", opts.Tone, opts.Length, opts.Format)
	if opts.OutputLanguage != "" {
		fmt.Fprintf(&b, " Write in %q.", opts.OutputLanguage)
	}
	writeContext(&b, opts)
	b.WriteString("\nReply with the text only.")

	req := llm.UserPrompt(b.String(), prompt)
	req.Temperature = 0.7
	return s.text(ctx, req)
}

func (s *LLMService) Prompt(ctx context.Context, text string, opts Options) (string, error) {
	req := llm.UserPrompt(opts.SystemPrompt, text)
	req.JSON = opts.Format == "json"
	req.Temperature = 0.7
	return s.text(ctx, req)
}

func (s *LLMService) text(ctx context.Context, req llm.Request) (string, error) {
	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func writeContext(b *strings.Builder, opts Options) {
	if opts.SharedContext != "" {
		fmt.Fprintf(b, "\nBackground: %s", opts.SharedContext)
	}
	if opts.Context != "" {
		fmt.Fprintf(b, "\nContext: %s", opts.Context)
	}
}

func describe(v, asIs string) string {
	if v == "" || v == "as-is" {
		return asIs
	}
	return v
}
