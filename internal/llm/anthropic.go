package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel = "claude-haiku"
	vendorAnthropic       = "anthropic"

	// The Messages API has no default for max_tokens.
	anthropicMaxTokens = 1024
)

var anthropicAliases = map[string]string{
	"claude-sonnet": "claude-sonnet-4-5",
	"claude-haiku":  "claude-haiku-4-5-20251001",
}

// AnthropicProvider implements Provider on the Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates a provider. The SDK's own retries are off
// since RetryProvider owns them; opts are applied after the defaults.
func NewAnthropicProvider(cfg AnthropicConfig, opts ...option.RequestOption) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	opts = append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  hostedModel(cfg.Model, defaultAnthropicModel, anthropicAliases),
	}, nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	msg, err := p.client.Messages.New(ctx, p.params(req))
	if err != nil {
		return nil, classifyAnthropic(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 && msg.StopReason != anthropic.StopReasonMaxTokens {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("anthropic reply has no text blocks")}
	}

	return settle(req, completion{
		text:  text.String(),
		model: string(msg.Model),
		usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
		truncated: msg.StopReason == anthropic.StopReasonMaxTokens,
	})
}

func (p *AnthropicProvider) ModelID() string { return p.model }

// Vendor names the service behind the provider.
func (p *AnthropicProvider) Vendor() string { return vendorAnthropic }

func (p *AnthropicProvider) params(req Request) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
	}

	system := req.System
	switch {
	case req.Schema != nil:
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: req.Schema.Definition},
		}
	case req.JSON:
		system = withJSONInstruction(system)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}
	return params
}

func classifyAnthropic(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return classifyStatus(vendorAnthropic, 0, 0, err)
	}
	var h http.Header
	if apiErr.Response != nil {
		h = apiErr.Response.Header
	}
	return classifyStatus(vendorAnthropic, apiErr.StatusCode, retryAfter(h), err)
}
