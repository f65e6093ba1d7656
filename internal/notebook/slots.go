package notebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/lingopad/internal/skills"
	"github.com/abhisek/lingopad/internal/store"
)

// SaveSelection stores the most recently selected text, replacing the
// previous one.
func (s *Store) SaveSelection(ctx context.Context, text string) error {
	if err := s.kv.Set(ctx, KeySelection, []byte(text)); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

// Selection returns the stored selection, or "" when there is none.
func (s *Store) Selection(ctx context.Context) (string, error) {
	raw, err := s.kv.Get(ctx, KeySelection)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load selection: %w", err)
	}
	return string(raw), nil
}

// SaveLastAnalysis keeps the most recent skill report for display.
func (s *Store) SaveLastAnalysis(ctx context.Context, r *skills.Report) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if err := s.kv.Set(ctx, KeyLastAnalysis, raw); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

// LastAnalysis returns the most recent report, or nil when none was saved.
func (s *Store) LastAnalysis(ctx context.Context) (*skills.Report, error) {
	raw, err := s.kv.Get(ctx, KeyLastAnalysis)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load analysis: %w", err)
	}
	var r *skills.Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return r, nil
}
