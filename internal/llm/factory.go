package llm

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/abhisek/lingopad/internal/store"
)

// NewProvider builds the engine named by cfg.Provider. Real engines are
// decorated so that every attempt is logged and failed attempts are retried:
// retry → logging → engine. events and log may be nil.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, log *zap.Logger) (Provider, error) {
	if cfg.Provider == ProviderMock {
		return NewMockProvider(), nil
	}

	engine, err := newEngine(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return WithRetry(WithLogging(engine, events, log), cfg.Retry), nil
}

func newEngine(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderOllama:
		return NewOllamaProvider(cfg.Ollama, &http.Client{Timeout: cfg.Timeout})
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAI)
	case ProviderOpenRouter:
		return NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderGemini:
		return NewGeminiProvider(ctx, cfg.Gemini)
	}
	return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
}
