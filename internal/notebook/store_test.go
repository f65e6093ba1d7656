package notebook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/abhisek/lingopad/internal/quiz"
	"github.com/abhisek/lingopad/internal/skills"
	"github.com/abhisek/lingopad/internal/store"
)

var fixedNow = time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC)

func newTestStore(kv store.KV) *Store {
	s := New(kv)
	s.now = func() time.Time { return fixedNow }
	return s
}

func entry(text string, skillSet map[string]float64) Entry {
	e := Entry{Text: text, Quiz: quiz.Quiz{{Kind: quiz.FillBlank, Question: "q", Answer: "a"}}}
	if skillSet != nil {
		r := &skills.Report{}
		for c, v := range skillSet {
			r.LearnedSkills = append(r.LearnedSkills, skills.Record{Concept: c, Confidence: v})
		}
		e.Analysis = r
	}
	return e
}

func TestAppendListDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(store.NewMemoryKV())

	e1, e2 := entry("uno", nil), entry("dos", nil)
	require.NoError(t, s.Append(ctx, "es", e1))
	require.NoError(t, s.Append(ctx, "es", e2))

	got, err := s.ListFor(ctx, "es")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "uno", got[0].Text)
	assert.Equal(t, "dos", got[1].Text)
	assert.True(t, fixedNow.Equal(got[0].Date))

	require.NoError(t, s.Delete(ctx, "es", 0))
	got, err = s.ListFor(ctx, "es")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "dos", got[0].Text)

	require.NoError(t, s.Delete(ctx, "es", 0))
	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.NotContains(t, all, "es")
}

func TestAppend_KeepsCallerDate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(store.NewMemoryKV())
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	e := entry("x", nil)
	e.Date = when
	require.NoError(t, s.Append(ctx, "ja", e))

	got, _ := s.ListFor(ctx, "ja")
	assert.True(t, got[0].Date.Equal(when))
}

func TestLanguageNormalization(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(store.NewMemoryKV())

	require.NoError(t, s.Append(ctx, " ES ", entry("hola", nil)))
	got, err := s.ListFor(ctx, "es")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	assert.ErrorIs(t, s.Append(ctx, "  ", entry("x", nil)), ErrEmptyLanguage)
	_, err = s.ListFor(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyLanguage)
}

func TestDelete_OutOfRange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(store.NewMemoryKV())
	require.NoError(t, s.Append(ctx, "es", entry("uno", nil)))

	for _, idx := range []int{1, 5, -1} {
		err := s.Delete(ctx, "es", idx)
		var oor *IndexOutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, idx, oor.Index)
		assert.Equal(t, 1, oor.Len)
	}

	got, _ := s.ListFor(ctx, "es")
	assert.Len(t, got, 1, "failed delete must not mutate")

	var oor *IndexOutOfRangeError
	assert.ErrorAs(t, s.Delete(ctx, "fr", 0), &oor)
}

func TestListAll_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(store.NewMemoryKV())
	require.NoError(t, s.Append(ctx, "es", entry("uno", nil)))

	snap, err := s.ListAll(ctx)
	require.NoError(t, err)
	snap["es"][0].Text = "changed"
	delete(snap, "es")

	fresh, err := s.ListFor(ctx, "es")
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "uno", fresh[0].Text)
}

func TestReadsReflectSubstrate(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	a, b := newTestStore(kv), newTestStore(kv)

	require.NoError(t, a.Append(ctx, "ja", entry("こんにちは", nil)))
	got, err := b.ListFor(ctx, "ja")
	require.NoError(t, err)
	assert.Len(t, got, 1, "reads must not be cached")
}

func TestLoad_DropsEmptyBuckets(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, KeyNotebooks, []byte(`{"es":[],"ja":[{"text":"x","date":"2025-01-01T00:00:00Z"}]}`)))

	langs, err := New(kv).Languages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ja"}, langs)
}

func TestLegacyQuizHTML(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, KeyNotebooks, []byte(`{"es":[{"text":"hola","quizHtml":"<h3>Quiz Time!</h3>","date":"2025-10-22T10:00:00.000Z"}]}`)))

	s := New(kv)
	got, err := s.ListFor(ctx, "es")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "<h3>Quiz Time!</h3>", got[0].QuizHTML)
	assert.Nil(t, got[0].Quiz)

	// Appending keeps the legacy entry intact.
	require.NoError(t, s.Append(ctx, "es", entry("adiós", nil)))
	got, _ = s.ListFor(ctx, "es")
	assert.Equal(t, "<h3>Quiz Time!</h3>", got[0].QuizHTML)
}

func TestAggregateSkills(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(store.NewMemoryKV())

	require.NoError(t, s.Append(ctx, "ja", entry("a", map[string]float64{"greeting": 0.8})))
	require.NoError(t, s.Append(ctx, "ja", entry("b", map[string]float64{"greeting": 0.6, "farewell": 0.9})))
	require.NoError(t, s.Append(ctx, "ja", entry("no analysis", nil)))
	require.NoError(t, s.Append(ctx, "es", entry("c", map[string]float64{"greeting": 0.1, "verbs": 0.5})))

	ja, err := s.AggregateSkills(ctx, "ja")
	require.NoError(t, err)
	m := ja.Map()
	require.Len(t, m, 2)
	assert.InDelta(t, 0.7, m["greeting"], 1e-9)
	assert.InDelta(t, 0.9, m["farewell"], 1e-9)
	assert.Equal(t, "farewell", ja[0].Concept, "sorted by concept")
	assert.Equal(t, 2, ja[1].Count)

	for _, scope := range []string{"", "all", "ALL"} {
		all, err := s.AggregateSkills(ctx, scope)
		require.NoError(t, err)
		m := all.Map()
		assert.Len(t, m, 3)
		assert.InDelta(t, 0.5, m["greeting"], 1e-9, "unweighted mean of 0.8, 0.6, 0.1")
	}

	none, err := s.AggregateSkills(ctx, "fr")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(store.NewMemoryKV())
	require.NoError(t, s.Append(ctx, "es", entry("hola", map[string]float64{"greeting": 0.8})))
	require.NoError(t, s.Append(ctx, "ja", entry("こんにちは", nil)))

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, &buf, "es", "yaml"))

	var decoded map[string][]map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Contains(t, decoded, "es")
	assert.NotContains(t, decoded, "ja")
	assert.Equal(t, "hola", decoded["es"][0]["text"])

	buf.Reset()
	require.NoError(t, s.Export(ctx, &buf, "all", "json"))
	var nb Notebooks
	require.NoError(t, json.Unmarshal(buf.Bytes(), &nb))
	assert.Equal(t, []string{"es", "ja"}, nb.Languages())

	assert.Error(t, s.Export(ctx, &buf, "", "csv"))
}

func TestSlots(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(store.NewMemoryKV())

	sel, err := s.Selection(ctx)
	require.NoError(t, err)
	assert.Empty(t, sel)

	require.NoError(t, s.SaveSelection(ctx, "Bonjour le monde"))
	sel, err = s.Selection(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bonjour le monde", sel)

	last, err := s.LastAnalysis(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	report := &skills.Report{
		LearnedSkills: []skills.Record{{Concept: "greeting", Confidence: 0.8}},
		SuggestedNext: []string{"numbers"},
	}
	require.NoError(t, s.SaveLastAnalysis(ctx, report))
	last, err = s.LastAnalysis(ctx)
	require.NoError(t, err)
	assert.Equal(t, report, last)
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(store.NewMemoryKV())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, "es", entry("x", nil)))
		}()
	}
	wg.Wait()

	got, err := s.ListFor(ctx, "es")
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "lingopad.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := newTestStore(db.KV())
	require.NoError(t, s.Append(ctx, "es", entry("uno", map[string]float64{"greeting": 0.8})))

	got, err := s.ListFor(ctx, "es")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.8, got[0].Analysis.LearnedSkills[0].Confidence)
}

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingKV) Set(context.Context, string, []byte) error   { return f.err }

func TestSubstrateErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk gone")
	s := New(failingKV{err: boom})

	assert.ErrorIs(t, s.Append(ctx, "es", entry("x", nil)), boom)
	_, err := s.ListAll(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.SaveSelection(ctx, "x"), boom)
}
