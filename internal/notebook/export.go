package notebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// Export writes the notebooks in scope ("" / "all" or a language code) to w
// as "yaml" or "json".
func (s *Store) Export(ctx context.Context, w io.Writer, scope, format string) error {
	nb, err := s.load(ctx)
	if err != nil {
		return err
	}
	if !IsAllScope(scope) {
		lang, err := NormalizeLanguage(scope)
		if err != nil {
			return err
		}
		filtered := Notebooks{}
		if entries, ok := nb[lang]; ok {
			filtered[lang] = entries
		}
		nb = filtered
	}

	switch format {
	case "", "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(nb); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(nb)
	default:
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}
}
