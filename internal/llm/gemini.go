package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel = "gemini-flash"
	vendorGemini       = "gemini"
)

var geminiAliases = map[string]string{
	"gemini-flash":      "gemini-2.5-flash",
	"gemini-flash-lite": "gemini-2.5-flash-lite",
	"gemini-pro":        "gemini-2.5-pro",
}

// GeminiProvider implements Provider on the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a provider. The client is built eagerly but
// makes no request until Generate.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{
		client: client,
		model:  hostedModel(cfg.Model, defaultGeminiModel, geminiAliases),
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	turns := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		var role genai.Role = genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		turns = append(turns, genai.NewContentFromText(m.Content, role))
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, turns, geminiConfig(req))
	if err != nil {
		return nil, classifyGemini(err)
	}

	var finish genai.FinishReason
	if len(result.Candidates) > 0 {
		finish = result.Candidates[0].FinishReason
	}
	text := result.Text()
	if text == "" && finish == genai.FinishReasonSafety {
		return nil, &ErrRejected{Vendor: vendorGemini, Err: fmt.Errorf("reply blocked: %s", finish)}
	}

	c := completion{
		text:      text,
		model:     p.model,
		truncated: finish == genai.FinishReasonMaxTokens,
	}
	if u := result.UsageMetadata; u != nil {
		c.usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	if result.ModelVersion != "" {
		c.model = result.ModelVersion
	}
	return settle(req, c)
}

func (p *GeminiProvider) ModelID() string { return p.model }

// Vendor names the service behind the provider.
func (p *GeminiProvider) Vendor() string { return vendorGemini }

func geminiConfig(req Request) *genai.GenerateContentConfig {
	conf := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		conf.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		conf.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.System != "" {
		conf.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil || req.JSON {
		conf.ResponseMIMEType = "application/json"
	}
	if req.Schema != nil {
		conf.ResponseSchema = geminiSchema(req.Schema.Definition)
	}
	return conf
}

var geminiTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// geminiSchema converts the JSON Schema subset used by the app's prompts
// into Gemini's schema type. Unknown keywords are dropped; the reply is
// still validated against the full definition afterwards.
func geminiSchema(def map[string]any) *genai.Schema {
	s := &genai.Schema{Type: genai.TypeString}
	if t, ok := def["type"].(string); ok {
		if gt, ok := geminiTypes[t]; ok {
			s.Type = gt
		}
	}
	s.Description, _ = def["description"].(string)
	s.Required = stringList(def["required"])
	s.Enum = stringList(def["enum"])

	if props, ok := def["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, v := range props {
			if sub, ok := v.(map[string]any); ok {
				s.Properties[name] = geminiSchema(sub)
			}
		}
	}
	if items, ok := def["items"].(map[string]any); ok {
		s.Items = geminiSchema(items)
	}
	if n, ok := def["minItems"].(int); ok {
		s.MinItems = genai.Ptr(int64(n))
	}
	if n, ok := def["maxItems"].(int); ok {
		s.MaxItems = genai.Ptr(int64(n))
	}
	return s
}

// stringList accepts both []string and the []any that decoded JSON yields.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, e := range list {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func classifyGemini(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(vendorGemini, apiErr.Code, 0, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return classifyStatus(vendorGemini, 0, 0, err)
}
