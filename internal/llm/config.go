package llm

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Engine names accepted in Config.Provider.
const (
	ProviderOllama     = "ollama"
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects the text-generation engine and carries the settings of
// every supported one; only the selected section is read.
type Config struct {
	Provider string

	Ollama     OllamaConfig
	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout caps one HTTP exchange with a local engine. Zero waits
	// forever, which suits a model that is still loading into memory.
	Timeout time.Duration
}

type OllamaConfig struct {
	ServerURL string
	Model     string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey string
	Model  string

	// BaseURL points the client at an OpenAI-compatible server.
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig shapes the backoff between attempts of one request.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig runs on-device: a small Qwen model behind a local Ollama.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderOllama,
		Ollama: OllamaConfig{
			ServerURL: defaultOllamaURL,
			Model:     "qwen3:1.7b",
		},
		Anthropic:  AnthropicConfig{Model: defaultAnthropicModel},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: defaultGeminiModel},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
	}
}

// keyVars lists the hosted engines in discovery order with the
// environment variable holding each one's key.
var keyVars = []struct{ provider, env string }{
	{ProviderGemini, "GEMINI_API_KEY"},
	{ProviderOpenAI, "OPENAI_API_KEY"},
	{ProviderAnthropic, "ANTHROPIC_API_KEY"},
	{ProviderOpenRouter, "OPENROUTER_API_KEY"},
}

// DiscoverConfig selects the first hosted engine whose API key is set in
// the environment. ok is false when none is.
func DiscoverConfig() (cfg Config, ok bool) {
	cfg = DefaultConfig()
	for _, kv := range keyVars {
		if key := os.Getenv(kv.env); key != "" {
			cfg.Provider = kv.provider
			*cfg.apiKey(kv.provider) = key
			return cfg, true
		}
	}
	return Config{}, false
}

// APIKey returns the key configured for a hosted engine.
func (c Config) APIKey(provider string) string {
	if k := c.apiKey(provider); k != nil {
		return *k
	}
	return ""
}

// SetAPIKey stores key for a hosted engine. Other engines ignore it.
func (c *Config) SetAPIKey(provider, key string) {
	if k := c.apiKey(provider); k != nil {
		*k = key
	}
}

func (c *Config) apiKey(provider string) *string {
	switch provider {
	case ProviderAnthropic:
		return &c.Anthropic.APIKey
	case ProviderOpenAI:
		return &c.OpenAI.APIKey
	case ProviderGemini:
		return &c.Gemini.APIKey
	case ProviderOpenRouter:
		return &c.OpenRouter.APIKey
	}
	return nil
}

// Validate checks that the selected engine can be constructed.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
	case ProviderOllama:
		if c.Ollama.Model == "" {
			return fmt.Errorf("llm.ollama.model is required for the ollama provider")
		}
		if c.Ollama.ServerURL != "" {
			if _, err := url.ParseRequestURI(c.Ollama.ServerURL); err != nil {
				return fmt.Errorf("llm.ollama.server_url: %w", err)
			}
		}
	default:
		key := c.apiKey(c.Provider)
		if key == nil {
			return fmt.Errorf("unknown LLM provider: %q", c.Provider)
		}
		if *key == "" {
			return fmt.Errorf("llm.%s.api_key is required for the %s provider", c.Provider, c.Provider)
		}
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm.retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
