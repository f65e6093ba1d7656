package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ollamaAPI covers the model management endpoints that langchaingo does not
// expose: listing local models and pulling new ones.
type ollamaAPI struct {
	baseURL string
	http    *http.Client
}

type ollamaTagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

type ollamaPullEvent struct {
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Error     string `json:"error"`
}

func (a *ollamaAPI) hasModel(ctx context.Context, model string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/tags", nil)
	if err != nil {
		return false, err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("list models: unexpected status %d", resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, fmt.Errorf("decode model list: %w", err)
	}

	want := canonicalModelName(model)
	for _, m := range tags.Models {
		if canonicalModelName(m.Name) == want || canonicalModelName(m.Model) == want {
			return true, nil
		}
	}
	return false, nil
}

// pull streams newline-delimited progress events until the server reports
// success or an error.
func (a *ollamaAPI) pull(ctx context.Context, model string, progress PullProgress) error {
	body, err := json.Marshal(map[string]any{"model": model, "stream": true})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return &ErrProviderUnavailable{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev ollamaPullEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("decode pull event: %w", err)
		}
		if ev.Error != "" {
			return fmt.Errorf("server: %s", ev.Error)
		}
		if progress != nil && ev.Total > 0 {
			progress(ev.Completed, ev.Total)
		}
		if ev.Status == "success" {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read pull stream: %w", err)
	}
	return fmt.Errorf("pull stream ended before success")
}

// canonicalModelName appends the implicit ":latest" tag.
func canonicalModelName(name string) string {
	if name == "" || strings.Contains(name, ":") {
		return name
	}
	return name + ":latest"
}
