// Package dispatch maps the high-level learner actions onto capability
// calls and the quiz synthesizer.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/lingopad/internal/capability"
	"github.com/abhisek/lingopad/internal/llm"
	"github.com/abhisek/lingopad/internal/quiz"
)

// Action is one of the dispatchable actions.
type Action string

const (
	Translate    Action = "translate"
	Detect       Action = "detect"
	Summarize    Action = "summarize"
	Rewrite      Action = "rewrite"
	Write        Action = "write"
	Prompt       Action = "prompt"
	GenerateQuiz Action = "generateQuiz"
)

// Actions lists every supported action.
var Actions = []Action{Translate, Detect, Summarize, Rewrite, Write, Prompt, GenerateQuiz}

// Modes a translation can be post-processed with.
const (
	ModeAsIs     = "as-is"
	ModeSimplify = "simplify"
	ModeEnhance  = "enhance"
)

// UnsupportedActionError names an action the dispatcher does not know.
type UnsupportedActionError struct {
	Action string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("unsupported action: %q", e.Action)
}

// Options tune a dispatch. Zero values take the defaults: target "en",
// mode "as-is".
type Options struct {
	TargetLanguage string `json:"targetLanguage,omitempty"`
	Mode           string `json:"mode,omitempty"`

	// SourceLanguage skips detection before translating.
	SourceLanguage string `json:"sourceLanguage,omitempty"`

	// Format "json" makes prompt return structured output when it can.
	Format string `json:"format,omitempty"`

	Progress capability.ProgressFunc `json:"-"`
}

// Result is what an action produced. Exactly one of Text, Detection, JSON
// or Quiz is set.
type Result struct {
	Action    Action                `json:"action"`
	Text      string                `json:"text,omitempty"`
	Detection *capability.Detection `json:"detection,omitempty"`
	JSON      json.RawMessage       `json:"json,omitempty"`
	Quiz      quiz.Quiz             `json:"quiz,omitempty"`
}

func (r *Result) String() string {
	switch {
	case r.Detection != nil:
		return r.Detection.String()
	case r.JSON != nil:
		return string(r.JSON)
	case r.Quiz != nil:
		return fmt.Sprintf("%d quiz items", len(r.Quiz))
	default:
		return r.Text
	}
}

// Invoker runs a capability call.
type Invoker interface {
	Invoke(ctx context.Context, req capability.Request) (capability.Result, error)
}

// QuizGenerator builds a quiz from text.
type QuizGenerator interface {
	Generate(ctx context.Context, text, targetLanguage string) (quiz.Quiz, error)
}

// Dispatcher holds no state between calls.
type Dispatcher struct {
	capabilities Invoker
	quizzes      QuizGenerator
	log          *zap.Logger
}

// New creates a Dispatcher. log may be nil.
func New(inv Invoker, quizzes QuizGenerator, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{capabilities: inv, quizzes: quizzes, log: log}
}

// Dispatch runs action on text. Unknown actions fail with
// *UnsupportedActionError; capability and quiz errors pass through.
func (d *Dispatcher) Dispatch(ctx context.Context, action, text string, opts Options) (*Result, error) {
	a := Action(strings.TrimSpace(action))
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = "en"
	}
	if opts.Mode == "" {
		opts.Mode = ModeAsIs
	}
	if llm.FlowIDFrom(ctx) == "" {
		ctx = llm.WithFlowID(ctx, uuid.NewString())
	}

	d.log.Debug("dispatch",
		zap.String("action", string(a)),
		zap.String("target", opts.TargetLanguage),
		zap.String("mode", opts.Mode),
		zap.String("flow_id", llm.FlowIDFrom(ctx)),
	)

	switch a {
	case Translate:
		return d.translate(ctx, text, opts)
	case Detect:
		return d.single(ctx, a, capability.Detect, text, capability.Options{}, opts.Progress)
	case Summarize:
		return d.single(ctx, a, capability.Summarize, text, capability.Options{
			Type:           "key-points",
			Length:         "medium",
			OutputLanguage: opts.TargetLanguage,
		}, opts.Progress)
	case Rewrite:
		return d.single(ctx, a, capability.Rewrite, text, capability.Options{
			Tone:           "more-formal",
			OutputLanguage: opts.TargetLanguage,
		}, opts.Progress)
	case Write:
		return d.single(ctx, a, capability.Write, text, capability.Options{
			Tone:           "formal",
			OutputLanguage: opts.TargetLanguage,
		}, opts.Progress)
	case Prompt:
		return d.single(ctx, a, capability.Prompt, text, capability.Options{Format: opts.Format}, opts.Progress)
	case GenerateQuiz:
		q, err := d.quizzes.Generate(ctx, text, opts.TargetLanguage)
		if err != nil {
			return nil, err
		}
		return &Result{Action: a, Quiz: q}, nil
	default:
		return nil, &UnsupportedActionError{Action: action}
	}
}

// translate detects the source (unless fixed), translates, then rewrites
// when a mode other than as-is was chosen.
func (d *Dispatcher) translate(ctx context.Context, text string, opts Options) (*Result, error) {
	source := opts.SourceLanguage
	if source == "" {
		res, err := d.capabilities.Invoke(ctx, capability.Request{
			Capability: capability.Detect,
			Input:      text,
			Progress:   opts.Progress,
		})
		if err != nil {
			return nil, err
		}
		det, ok := res.(capability.Detection)
		if !ok {
			return nil, &capability.Error{Capability: capability.Detect, Err: fmt.Errorf("unexpected result %T", res)}
		}
		source = det.Language
	}

	res, err := d.capabilities.Invoke(ctx, capability.Request{
		Capability: capability.Translate,
		Input:      text,
		Options:    capability.Options{SourceLanguage: source, TargetLanguage: opts.TargetLanguage},
		Progress:   opts.Progress,
	})
	if err != nil {
		return nil, err
	}
	translated := res.String()

	if opts.Mode == ModeAsIs {
		return &Result{Action: Translate, Text: translated}, nil
	}

	// The rewrite reads the translation, so its input is in the target language.
	rewrite := capability.Options{
		Tone:           ToneForMode(opts.Mode),
		OutputLanguage: opts.TargetLanguage,
	}
	if opts.TargetLanguage != "" {
		rewrite.ExpectedInputLanguages = []string{opts.TargetLanguage}
	}
	res, err = d.capabilities.Invoke(ctx, capability.Request{
		Capability: capability.Rewrite,
		Input:      translated,
		Options:    rewrite,
		Progress:   opts.Progress,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Action: Translate, Text: res.String()}, nil
}

// ToneForMode maps a post-processing mode to a rewrite tone.
func ToneForMode(mode string) string {
	if mode == ModeSimplify {
		return "more-casual"
	}
	return "more-formal"
}

func (d *Dispatcher) single(ctx context.Context, a Action, k capability.Kind, text string, o capability.Options, progress capability.ProgressFunc) (*Result, error) {
	res, err := d.capabilities.Invoke(ctx, capability.Request{
		Capability: k,
		Input:      text,
		Options:    o,
		Progress:   progress,
	})
	if err != nil {
		return nil, err
	}

	out := &Result{Action: a}
	switch v := res.(type) {
	case capability.Detection:
		out.Detection = &v
	case capability.JSON:
		out.JSON = v.Raw
	default:
		out.Text = res.String()
	}
	return out, nil
}
