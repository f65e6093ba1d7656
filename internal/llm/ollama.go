package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaProvider implements Provider against a local Ollama server. Text
// generation goes through langchaingo; model presence and downloads use the
// server's management endpoints directly.
type OllamaProvider struct {
	client  *ollama.LLM
	api     *ollamaAPI
	model   string
	pulling atomic.Int32
}

// NewOllamaProvider creates a provider for cfg.Model on cfg.ServerURL.
// httpClient may be nil. No request is made until first use.
func NewOllamaProvider(cfg OllamaConfig, httpClient *http.Client) (*OllamaProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	serverURL := cfg.ServerURL
	if serverURL == "" {
		serverURL = defaultOllamaURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	client, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(cfg.Model),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	return &OllamaProvider{
		client: client,
		api:    &ollamaAPI{baseURL: strings.TrimRight(serverURL, "/"), http: httpClient},
		model:  cfg.Model,
	}, nil
}

func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var messages []llms.MessageContent
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	for _, m := range req.Messages {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Schema != nil || req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := p.client.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, mapOllamaError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("no choices in ollama response")}
	}

	choice := resp.Choices[0]
	text := strings.TrimSpace(thinkBlock.ReplaceAllString(choice.Content, ""))

	if req.Schema != nil {
		if err := validateResponse(req.Schema, []byte(text)); err != nil {
			return nil, err
		}
	}

	usage := Usage{
		InputTokens:  infoInt(choice.GenerationInfo, "PromptTokens"),
		OutputTokens: infoInt(choice.GenerationInfo, "CompletionTokens"),
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens

	return &Response{
		Content:    []byte(text),
		Usage:      usage,
		Model:      p.model,
		StopReason: mapOllamaStopReason(choice.StopReason),
	}, nil
}

func (p *OllamaProvider) ModelID() string {
	return p.model
}

func (p *OllamaProvider) Vendor() string { return "ollama" }

// ModelState reports ModelPulling while a Pull from this process is running.
func (p *OllamaProvider) ModelState(ctx context.Context) (ModelState, error) {
	if p.pulling.Load() > 0 {
		return ModelPulling, nil
	}
	ok, err := p.api.hasModel(ctx, p.model)
	if err != nil {
		return ModelMissing, &ErrProviderUnavailable{Err: err}
	}
	if !ok {
		return ModelMissing, nil
	}
	return ModelReady, nil
}

func (p *OllamaProvider) Pull(ctx context.Context, progress PullProgress) error {
	p.pulling.Add(1)
	defer p.pulling.Add(-1)

	if err := p.api.pull(ctx, p.model, progress); err != nil {
		return fmt.Errorf("pull %s: %w", p.model, err)
	}
	return nil
}

func infoInt(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func mapOllamaStopReason(reason string) string {
	if reason == "length" {
		return "max_tokens"
	}
	return "end"
}

func mapOllamaError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if strings.Contains(err.Error(), "not found") {
		return &ErrProviderUnavailable{Err: fmt.Errorf("%w: %v", ErrModelMissing, err)}
	}
	return &ErrProviderUnavailable{Err: err}
}
