package study

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingopad/internal/notebook"
	"github.com/abhisek/lingopad/internal/quiz"
	"github.com/abhisek/lingopad/internal/skills"
	"github.com/abhisek/lingopad/internal/store"
)

type stubAnalyzer struct {
	report *skills.Report
	err    error
	calls  int
}

func (s *stubAnalyzer) Analyze(context.Context, []quiz.Response) (*skills.Report, error) {
	s.calls++
	return s.report, s.err
}

var sampleQuiz = quiz.Quiz{{Kind: quiz.FillBlank, Question: "Buenos ____", Answer: "días"}}

func sampleResponses() []quiz.Response {
	return []quiz.Response{quiz.Grade(sampleQuiz[0], "días")}
}

func TestSave_WithAnalysis(t *testing.T) {
	ctx := context.Background()
	nb := notebook.New(store.NewMemoryKV())
	report := &skills.Report{LearnedSkills: []skills.Record{{Concept: "greeting", Confidence: 0.9}}}
	an := &stubAnalyzer{report: report}
	f := NewFlow(an, nb, nil)

	res, err := f.Save(ctx, SaveRequest{Language: "ES", Text: " Buenos días ", Quiz: sampleQuiz, Responses: sampleResponses()})
	require.NoError(t, err)
	assert.NoError(t, res.AnalysisErr)
	assert.Equal(t, "Buenos días", res.Entry.Text)
	assert.False(t, res.Entry.Date.IsZero())

	entries, err := nb.ListFor(ctx, "es")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, report, entries[0].Analysis)
	assert.Equal(t, sampleQuiz, entries[0].Quiz)

	last, err := nb.LastAnalysis(ctx)
	require.NoError(t, err)
	assert.Equal(t, report, last)
}

func TestSave_AnalysisFailureStillSaves(t *testing.T) {
	ctx := context.Background()
	nb := notebook.New(store.NewMemoryKV())
	an := &stubAnalyzer{err: &skills.AnalysisError{Reason: "no JSON object in response"}}
	f := NewFlow(an, nb, nil)

	res, err := f.Save(ctx, SaveRequest{Language: "ja", Text: "こんにちは", Quiz: sampleQuiz, Responses: sampleResponses()})
	require.NoError(t, err)

	var analysisErr *skills.AnalysisError
	assert.ErrorAs(t, res.AnalysisErr, &analysisErr)
	assert.Nil(t, res.Entry.Analysis)

	entries, _ := nb.ListFor(ctx, "ja")
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Analysis)
}

func TestSave_OtherAnalyzerErrorsAbort(t *testing.T) {
	ctx := context.Background()
	nb := notebook.New(store.NewMemoryKV())
	boom := errors.New("boom")
	f := NewFlow(&stubAnalyzer{err: boom}, nb, nil)

	_, err := f.Save(ctx, SaveRequest{Language: "es", Text: "hola", Responses: sampleResponses()})
	assert.ErrorIs(t, err, boom)

	langs, _ := nb.Languages(ctx)
	assert.Empty(t, langs)
}

func TestSave_PrecomputedAnalysisSkipsAnalyzer(t *testing.T) {
	ctx := context.Background()
	nb := notebook.New(store.NewMemoryKV())
	an := &stubAnalyzer{}
	f := NewFlow(an, nb, nil)

	report := &skills.Report{LearnedSkills: []skills.Record{{Concept: "numbers", Confidence: 0.4}}}
	_, err := f.Save(ctx, SaveRequest{Language: "es", Text: "uno dos", Responses: sampleResponses(), Analysis: report})
	require.NoError(t, err)
	assert.Zero(t, an.calls)
}

func TestSave_NoResponsesNoAnalysis(t *testing.T) {
	ctx := context.Background()
	an := &stubAnalyzer{}
	f := NewFlow(an, notebook.New(store.NewMemoryKV()), nil)

	res, err := f.Save(ctx, SaveRequest{Language: "es", Text: "hola"})
	require.NoError(t, err)
	assert.Zero(t, an.calls)
	assert.Nil(t, res.Entry.Analysis)
}

func TestSave_Validation(t *testing.T) {
	ctx := context.Background()
	f := NewFlow(&stubAnalyzer{}, notebook.New(store.NewMemoryKV()), nil)

	_, err := f.Save(ctx, SaveRequest{Language: "es", Text: "   "})
	assert.ErrorIs(t, err, ErrNothingToSave)

	_, err = f.Save(ctx, SaveRequest{Language: "", Text: "hola"})
	assert.ErrorIs(t, err, notebook.ErrEmptyLanguage)
}
