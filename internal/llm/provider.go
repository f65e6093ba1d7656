package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider is the text-generation engine behind every language capability.
// Translation, summarization, rewriting, quiz generation and skill analysis
// all reach the model through this single call.
type Provider interface {
	// Generate sends a prompt to the model and returns its output.
	// When req.Schema is set the provider asks for JSON conforming to it
	// and validates the result before returning.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation. Capability calls are single-turn, so
	// this usually holds one user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When nil the response Content is the model's raw text.
	Schema *Schema

	// JSON asks for a JSON body without binding it to a schema. Providers
	// that support a JSON mode enable it; the rest ignore the flag.
	JSON bool

	MaxTokens int

	// Temperature controls randomness, 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds a single-turn request.
func UserPrompt(system, content string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: content}},
	}
}

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema, kebab-case, e.g. "language-detection".
	Name string

	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the validated JSON object when a Schema was provided,
	// otherwise the raw text bytes.
	Content json.RawMessage

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Text returns the response content as trimmed text.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Content))
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
