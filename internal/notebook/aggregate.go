package notebook

import (
	"context"
	"sort"
	"strings"
)

// SkillAverage is a concept's mean confidence over the entries in scope.
type SkillAverage struct {
	Concept string  `json:"concept" yaml:"concept"`
	Mean    float64 `json:"mean" yaml:"mean"`
	Count   int     `json:"count" yaml:"count"`
}

// Skills is an aggregate sorted by concept.
type Skills []SkillAverage

// Map returns concept -> mean.
func (s Skills) Map() map[string]float64 {
	m := make(map[string]float64, len(s))
	for _, a := range s {
		m[a.Concept] = a.Mean
	}
	return m
}

// IsAllScope reports whether scope selects every language.
func IsAllScope(scope string) bool {
	s := strings.TrimSpace(scope)
	return s == "" || strings.EqualFold(s, "all")
}

// AggregateSkills averages each concept's confidence across the analyses of
// every entry in scope: a language code, or "" / "all" for everything. The
// mean is unweighted; entries without an analysis are skipped.
func (s *Store) AggregateSkills(ctx context.Context, scope string) (Skills, error) {
	nb, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return Aggregate(nb, scope), nil
}

// Aggregate is AggregateSkills over an already loaded snapshot.
func Aggregate(nb Notebooks, scope string) Skills {
	var langs []string
	if IsAllScope(scope) {
		langs = nb.Languages()
	} else {
		langs = []string{strings.ToLower(strings.TrimSpace(scope))}
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	for _, lang := range langs {
		for _, e := range nb[lang] {
			if e.Analysis == nil {
				continue
			}
			for _, r := range e.Analysis.LearnedSkills {
				sums[r.Concept] += r.Confidence
				counts[r.Concept]++
			}
		}
	}

	out := make(Skills, 0, len(sums))
	for concept, sum := range sums {
		out = append(out, SkillAverage{
			Concept: concept,
			Mean:    sum / float64(counts[concept]),
			Count:   counts[concept],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Concept < out[j].Concept })
	return out
}
