// Package notebook keeps the learner's per-language notebooks: saved
// translations with their quiz and skill analysis.
package notebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/lingopad/internal/quiz"
	"github.com/abhisek/lingopad/internal/skills"
	"github.com/abhisek/lingopad/internal/store"
)

// Keys in the KV substrate.
const (
	KeyNotebooks    = "notebooks"
	KeySelection    = "selectedText"
	KeyLastAnalysis = "lastSkillAnalysis"
)

// Entry is one saved record. QuizHTML is only set on entries saved by old
// clients that stored a rendered quiz instead of its items.
type Entry struct {
	Text     string         `json:"text" yaml:"text"`
	Quiz     quiz.Quiz      `json:"quiz,omitempty" yaml:"quiz,omitempty"`
	QuizHTML string         `json:"quizHtml,omitempty" yaml:"quizHtml,omitempty"`
	Analysis *skills.Report `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Date     time.Time      `json:"date" yaml:"date"`
}

// Notebooks maps a language code to its entries in append order. A code is
// present only while it has entries.
type Notebooks map[string][]Entry

// Languages returns the codes in sorted order.
func (n Notebooks) Languages() []string {
	langs := make([]string, 0, len(n))
	for l := range n {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// ErrEmptyLanguage is returned for a blank language code.
var ErrEmptyLanguage = errors.New("language code is required")

// IndexOutOfRangeError is returned by Delete for an index outside the
// notebook. Nothing is changed.
type IndexOutOfRangeError struct {
	Language string
	Index    int
	Len      int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("notebook %q has %d entries, no entry at index %d", e.Language, e.Len, e.Index)
}

// Store owns the notebooks. Every read decodes a fresh snapshot from the
// substrate; every write persists the whole mapping before returning.
//
// The mutex serializes read-modify-write within this process only. Two
// processes sharing a substrate can still lose an update.
type Store struct {
	kv  store.KV
	mu  sync.Mutex
	now func() time.Time
}

// New creates a Store on kv.
func New(kv store.KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

// NormalizeLanguage trims and lower-cases a language code.
func NormalizeLanguage(lang string) (string, error) {
	l := strings.ToLower(strings.TrimSpace(lang))
	if l == "" {
		return "", ErrEmptyLanguage
	}
	return l, nil
}

// Append adds e to lang's notebook, creating it if needed. A zero Date is
// set to the current time.
func (s *Store) Append(ctx context.Context, lang string, e Entry) error {
	lang, err := NormalizeLanguage(lang)
	if err != nil {
		return err
	}
	if e.Date.IsZero() {
		e.Date = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nb, err := s.load(ctx)
	if err != nil {
		return err
	}
	nb[lang] = append(nb[lang], e)
	return s.save(ctx, nb)
}

// Delete removes the entry at index from lang's notebook. The language is
// dropped once its last entry is gone.
func (s *Store) Delete(ctx context.Context, lang string, index int) error {
	lang, err := NormalizeLanguage(lang)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nb, err := s.load(ctx)
	if err != nil {
		return err
	}
	entries := nb[lang]
	if index < 0 || index >= len(entries) {
		return &IndexOutOfRangeError{Language: lang, Index: index, Len: len(entries)}
	}

	entries = append(entries[:index:index], entries[index+1:]...)
	if len(entries) == 0 {
		delete(nb, lang)
	} else {
		nb[lang] = entries
	}
	return s.save(ctx, nb)
}

// ListAll returns every notebook.
func (s *Store) ListAll(ctx context.Context) (Notebooks, error) {
	return s.load(ctx)
}

// ListFor returns lang's entries, or none when it has no notebook.
func (s *Store) ListFor(ctx context.Context, lang string) ([]Entry, error) {
	lang, err := NormalizeLanguage(lang)
	if err != nil {
		return nil, err
	}
	nb, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return nb[lang], nil
}

// Languages returns the codes that have notebooks, sorted.
func (s *Store) Languages(ctx context.Context) ([]string, error) {
	nb, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return nb.Languages(), nil
}

func (s *Store) load(ctx context.Context) (Notebooks, error) {
	raw, err := s.kv.Get(ctx, KeyNotebooks)
	if errors.Is(err, store.ErrNotFound) {
		return Notebooks{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load notebooks: %w", err)
	}

	nb := Notebooks{}
	if err := json.Unmarshal(raw, &nb); err != nil {
		return nil, fmt.Errorf("decode notebooks: %w", err)
	}
	for lang, entries := range nb {
		if len(entries) == 0 {
			delete(nb, lang)
		}
	}
	return nb, nil
}

func (s *Store) save(ctx context.Context, nb Notebooks) error {
	raw, err := json.Marshal(nb)
	if err != nil {
		return fmt.Errorf("encode notebooks: %w", err)
	}
	if err := s.kv.Set(ctx, KeyNotebooks, raw); err != nil {
		return fmt.Errorf("save notebooks: %w", err)
	}
	return nil
}
