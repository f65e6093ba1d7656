// Package study runs the save step of a learning session: analyze the
// answered quiz, then file translation, quiz and analysis in the notebook.
package study

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/lingopad/internal/llm"
	"github.com/abhisek/lingopad/internal/notebook"
	"github.com/abhisek/lingopad/internal/quiz"
	"github.com/abhisek/lingopad/internal/skills"
)

// ErrNothingToSave is returned when a save has no text.
var ErrNothingToSave = errors.New("translate some text before saving")

// Analyzer produces a skill report for answered questions.
type Analyzer interface {
	Analyze(ctx context.Context, responses []quiz.Response) (*skills.Report, error)
}

// Flow ties the analyzer to the notebook store.
type Flow struct {
	analyzer  Analyzer
	notebooks *notebook.Store
	log       *zap.Logger
}

// NewFlow creates a Flow. log may be nil.
func NewFlow(a Analyzer, nb *notebook.Store, log *zap.Logger) *Flow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Flow{analyzer: a, notebooks: nb, log: log}
}

// SaveRequest is one entry to file.
type SaveRequest struct {
	Language  string          `json:"language"`
	Text      string          `json:"text"`
	Quiz      quiz.Quiz       `json:"quiz,omitempty"`
	Responses []quiz.Response `json:"responses,omitempty"`

	// Analysis skips the analyzer when the caller already has a report.
	Analysis *skills.Report `json:"analysis,omitempty"`
}

// SaveResult reports what was filed. AnalysisErr is set when analysis
// failed and the entry was saved without one.
type SaveResult struct {
	Entry       notebook.Entry `json:"entry"`
	AnalysisErr error          `json:"-"`
}

// Analyze runs the analyzer and keeps the report as the last analysis.
func (f *Flow) Analyze(ctx context.Context, responses []quiz.Response) (*skills.Report, error) {
	report, err := f.analyzer.Analyze(ctx, responses)
	if err != nil {
		return nil, err
	}
	if err := f.notebooks.SaveLastAnalysis(ctx, report); err != nil {
		f.log.Warn("could not keep last analysis", zap.Error(err))
	}
	return report, nil
}

// Save files req in its language's notebook. A failed analysis does not
// block the save; the entry is stored without one.
func (f *Flow) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrNothingToSave
	}
	lang, err := notebook.NormalizeLanguage(req.Language)
	if err != nil {
		return nil, err
	}
	if llm.FlowIDFrom(ctx) == "" {
		ctx = llm.WithFlowID(ctx, uuid.NewString())
	}

	res := &SaveResult{}
	report := req.Analysis
	if report == nil && len(req.Responses) > 0 {
		report, err = f.Analyze(ctx, req.Responses)
		if err != nil {
			var analysisErr *skills.AnalysisError
			if !errors.As(err, &analysisErr) {
				return nil, err
			}
			f.log.Warn("saving without skill analysis",
				zap.String("language", lang),
				zap.String("flow_id", llm.FlowIDFrom(ctx)),
				zap.Error(err),
			)
			res.AnalysisErr = err
			report = nil
		}
	}

	entry := notebook.Entry{
		Text:     strings.TrimSpace(req.Text),
		Quiz:     req.Quiz,
		Analysis: report,
	}
	if err := f.notebooks.Append(ctx, lang, entry); err != nil {
		return nil, err
	}

	entries, err := f.notebooks.ListFor(ctx, lang)
	if err == nil && len(entries) > 0 {
		entry = entries[len(entries)-1]
	}
	res.Entry = entry

	f.log.Info("notebook entry saved",
		zap.String("language", lang),
		zap.Bool("analysis", report != nil),
		zap.Int("quiz_items", len(req.Quiz)),
	)
	return res, nil
}
