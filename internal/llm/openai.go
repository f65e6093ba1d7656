package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIModel   = "gpt-mini"
	defaultOpenRouterURL = "https://openrouter.ai/api/v1"
	openRouterReferer    = "https://github.com/abhisek/lingopad"
	openRouterAppTitle   = "lingopad"
	vendorOpenAI         = "openai"
	vendorOpenRouter     = "openrouter"
)

var openaiAliases = map[string]string{
	"gpt-mini": "gpt-4.1-mini",
	"gpt-nano": "gpt-4.1-nano",
}

// OpenAIProvider talks to the chat completions API. It serves OpenAI itself
// and OpenRouter, which speaks the same protocol but routes to many models
// with uneven support for server-side schema enforcement.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	vendor string

	// strictSchema sends the schema to the server as json_schema. When false
	// the request only asks for a JSON object and the schema is checked here.
	strictSchema bool
}

// NewOpenAIProvider creates a provider for api.openai.com or a compatible
// endpoint named by cfg.BaseURL.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(conf),
		model:        hostedModel(cfg.Model, defaultOpenAIModel, openaiAliases),
		vendor:       vendorOpenAI,
		strictSchema: true,
	}, nil
}

// NewOpenRouterProvider creates a provider for OpenRouter. Model IDs are
// passed through untouched ("vendor/model").
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openrouter model is required")
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	conf.BaseURL = defaultOpenRouterURL
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	conf.HTTPClient = &http.Client{Transport: appHeaders{
		next: http.DefaultTransport,
		headers: map[string]string{
			"HTTP-Referer": openRouterReferer,
			"X-Title":      openRouterAppTitle,
		},
	}}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(conf),
		model:  cfg.Model,
		vendor: vendorOpenRouter,
	}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	chat, err := p.chatRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return nil, p.classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("%s returned no choices", p.vendor)}
	}

	choice := resp.Choices[0]
	model := resp.Model
	if model == "" {
		model = p.model
	}
	return settle(req, completion{
		text:  choice.Message.Content,
		model: model,
		usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		truncated: choice.FinishReason == openai.FinishReasonLength,
	})
}

func (p *OpenAIProvider) ModelID() string { return p.model }

// Vendor names the service behind the provider.
func (p *OpenAIProvider) Vendor() string { return p.vendor }

func (p *OpenAIProvider) chatRequest(req Request) (openai.ChatCompletionRequest, error) {
	chat := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: float32(req.Temperature),
	}
	// OpenRouter forwards max_tokens to every upstream; OpenAI's newer
	// models only accept max_completion_tokens.
	if p.vendor == vendorOpenRouter {
		chat.MaxTokens = req.MaxTokens
	} else {
		chat.MaxCompletionTokens = req.MaxTokens
	}

	if req.System != "" {
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	switch {
	case req.Schema != nil && p.strictSchema:
		def, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return chat, fmt.Errorf("encode schema %q: %w", req.Schema.Name, err)
		}
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Schema:      json.RawMessage(def),
				Strict:      true,
			},
		}
	case req.Schema != nil || req.JSON:
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return chat, nil
}

func (p *OpenAIProvider) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(p.vendor, apiErr.HTTPStatusCode, 0, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(p.vendor, reqErr.HTTPStatusCode, 0, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return classifyStatus(p.vendor, 0, 0, err)
}

// appHeaders adds fixed headers to every outgoing request.
type appHeaders struct {
	next    http.RoundTripper
	headers map[string]string
}

func (t appHeaders) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.next.RoundTrip(r)
}
