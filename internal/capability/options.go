// Package capability puts the language model's operations (detect,
// translate, summarize, rewrite, write, prompt) behind one Invoke call with
// per-capability defaults and an availability check before each call.
package capability

import (
	"fmt"
	"strings"
)

// Kind names one capability.
type Kind string

const (
	Detect    Kind = "detect"
	Translate Kind = "translate"
	Summarize Kind = "summarize"
	Rewrite   Kind = "rewrite"
	Write     Kind = "write"
	Prompt    Kind = "prompt"
)

// Kinds lists every capability in display order.
var Kinds = []Kind{Detect, Translate, Summarize, Rewrite, Write, Prompt}

// ParseKind resolves a capability name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown capability %q", s)
}

// Options are the knobs a capability call recognizes. Empty fields take the
// capability's default.
type Options struct {
	Tone                   string   `json:"tone,omitempty" yaml:"tone,omitempty"`
	Length                 string   `json:"length,omitempty" yaml:"length,omitempty"`
	Format                 string   `json:"format,omitempty" yaml:"format,omitempty"`
	Type                   string   `json:"type,omitempty" yaml:"type,omitempty"`
	SourceLanguage         string   `json:"sourceLanguage,omitempty" yaml:"sourceLanguage,omitempty"`
	TargetLanguage         string   `json:"targetLanguage,omitempty" yaml:"targetLanguage,omitempty"`
	OutputLanguage         string   `json:"outputLanguage,omitempty" yaml:"outputLanguage,omitempty"`
	SharedContext          string   `json:"sharedContext,omitempty" yaml:"sharedContext,omitempty"`
	Context                string   `json:"context,omitempty" yaml:"context,omitempty"`
	SystemPrompt           string   `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty"`
	ExpectedInputLanguages []string `json:"expectedInputLanguages,omitempty" yaml:"expectedInputLanguages,omitempty"`
}

// DefaultSystemPrompt is the prompt capability's system message when the
// caller gives none.
const DefaultSystemPrompt = "You are a helpful assistant that returns JSON if requested."

var defaults = map[Kind]Options{
	Summarize: {Type: "key-points", Format: "markdown", Length: "medium"},
	Write:     {Tone: "neutral", Format: "plain-text", Length: "medium"},
	Rewrite: {
		Tone:                   "as-is",
		Format:                 "plain-text",
		Length:                 "as-is",
		OutputLanguage:         "en",
		ExpectedInputLanguages: []string{"en"},
	},
	Translate: {TargetLanguage: "en"},
	Prompt:    {SystemPrompt: DefaultSystemPrompt},
}

// Defaults returns the default options for k.
func Defaults(k Kind) Options {
	d := defaults[k]
	d.ExpectedInputLanguages = append([]string(nil), d.ExpectedInputLanguages...)
	return d
}

// MergeOptions overlays every non-empty field of o on the defaults for k.
func MergeOptions(k Kind, o Options) Options {
	m := Defaults(k)
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&m.Tone, o.Tone)
	pick(&m.Length, o.Length)
	pick(&m.Format, o.Format)
	pick(&m.Type, o.Type)
	pick(&m.SourceLanguage, o.SourceLanguage)
	pick(&m.TargetLanguage, o.TargetLanguage)
	pick(&m.OutputLanguage, o.OutputLanguage)
	pick(&m.SharedContext, o.SharedContext)
	pick(&m.Context, o.Context)
	pick(&m.SystemPrompt, o.SystemPrompt)
	if len(o.ExpectedInputLanguages) > 0 {
		m.ExpectedInputLanguages = append([]string(nil), o.ExpectedInputLanguages...)
	}
	return m
}

// Progress reports how much of a model download has completed, 0 to 1.
type Progress struct {
	Capability Kind
	Loaded     float64
}

// ProgressFunc receives download progress. It may be called from another
// goroutine and must not block.
type ProgressFunc func(Progress)

// Request is one capability invocation.
type Request struct {
	Capability Kind
	Input      string
	Options    Options
	Progress   ProgressFunc
}
