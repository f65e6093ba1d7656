// Package config loads lingopad settings from flags, environment and an
// optional lingopad.yaml through viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/lingopad/internal/llm"
	"github.com/abhisek/lingopad/internal/logger"
	"github.com/abhisek/lingopad/internal/store"
)

// EnvPrefix prefixes every environment override, e.g. LINGOPAD_LLM_PROVIDER.
const EnvPrefix = "LINGOPAD"

// Config is the resolved application configuration.
type Config struct {
	LLM          llm.Config
	Store        StoreConfig
	Server       ServerConfig
	Log          logger.Config
	Capabilities CapabilityConfig
	Notebook     NotebookConfig
}

// StoreConfig selects the persistence substrate.
type StoreConfig struct {
	Backend string // sqlite, redis or memory
	Path    string // sqlite file; empty uses store.DefaultDBPath
	Redis   store.RedisConfig
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string
	RatePerSecond   float64
	RateBurst       int
	ShutdownTimeout time.Duration
}

// CapabilityConfig controls how capabilities are resolved at startup.
type CapabilityConfig struct {
	Disabled []string

	// WaitForProvisioning blocks an invocation while the model downloads
	// instead of failing fast.
	WaitForProvisioning bool
}

// NotebookConfig holds defaults for the learning flow.
type NotebookConfig struct {
	TargetLanguage string
	Mode           string
}

// SetDefaults registers every key with its default so AutomaticEnv can
// resolve it.
func SetDefaults(v *viper.Viper) {
	d := llm.DefaultConfig()

	v.SetDefault("llm.provider", "auto")
	v.SetDefault("llm.timeout", d.Timeout)
	v.SetDefault("llm.ollama.server_url", d.Ollama.ServerURL)
	v.SetDefault("llm.ollama.model", d.Ollama.Model)
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", d.Anthropic.Model)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", d.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", d.Gemini.Model)
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", d.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", d.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", d.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", d.Retry.Multiplier)

	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.path", "")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "lingopad:")

	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("server.rate_per_second", 5.0)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	v.SetDefault("capabilities.disabled", []string{})
	v.SetDefault("capabilities.wait_for_provisioning", true)

	v.SetDefault("notebook.target_language", "en")
	v.SetDefault("notebook.mode", "as-is")
}

// Bind wires environment lookup: llm.ollama.model reads
// LINGOPAD_LLM_OLLAMA_MODEL.
func Bind(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load resolves a Config from v. The "auto" provider picks the first vendor
// whose standard API key is in the environment and falls back to Ollama.
func Load(v *viper.Viper) (*Config, error) {
	d := llm.DefaultConfig()
	cfg := &Config{
		LLM: llm.Config{
			Provider: v.GetString("llm.provider"),
			Timeout:  v.GetDuration("llm.timeout"),
			Ollama: llm.OllamaConfig{
				ServerURL: v.GetString("llm.ollama.server_url"),
				Model:     v.GetString("llm.ollama.model"),
			},
			Anthropic: llm.AnthropicConfig{
				APIKey: v.GetString("llm.anthropic.api_key"),
				Model:  v.GetString("llm.anthropic.model"),
			},
			OpenAI: llm.OpenAIConfig{
				APIKey:  v.GetString("llm.openai.api_key"),
				Model:   v.GetString("llm.openai.model"),
				BaseURL: v.GetString("llm.openai.base_url"),
			},
			Gemini: llm.GeminiConfig{
				APIKey: v.GetString("llm.gemini.api_key"),
				Model:  v.GetString("llm.gemini.model"),
			},
			OpenRouter: llm.OpenRouterConfig{
				APIKey:  v.GetString("llm.openrouter.api_key"),
				Model:   v.GetString("llm.openrouter.model"),
				BaseURL: v.GetString("llm.openrouter.base_url"),
			},
			Retry: llm.RetryConfig{
				MaxAttempts: v.GetInt("llm.retry.max_attempts"),
				InitialWait: v.GetDuration("llm.retry.initial_wait"),
				MaxWait:     v.GetDuration("llm.retry.max_wait"),
				Multiplier:  v.GetFloat64("llm.retry.multiplier"),
			},
		},
		Store: StoreConfig{
			Backend: v.GetString("store.backend"),
			Path:    v.GetString("store.path"),
			Redis: store.RedisConfig{
				Addr:     v.GetString("store.redis.addr"),
				Password: v.GetString("store.redis.password"),
				DB:       v.GetInt("store.redis.db"),
				Prefix:   v.GetString("store.redis.prefix"),
			},
		},
		Server: ServerConfig{
			Addr:            v.GetString("server.addr"),
			RatePerSecond:   v.GetFloat64("server.rate_per_second"),
			RateBurst:       v.GetInt("server.rate_burst"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Log: logger.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			File:   v.GetString("log.file"),
		},
		Capabilities: CapabilityConfig{
			Disabled:            v.GetStringSlice("capabilities.disabled"),
			WaitForProvisioning: v.GetBool("capabilities.wait_for_provisioning"),
		},
		Notebook: NotebookConfig{
			TargetLanguage: v.GetString("notebook.target_language"),
			Mode:           v.GetString("notebook.mode"),
		},
	}

	if cfg.LLM.Provider == "auto" {
		if discovered, ok := llm.DiscoverConfig(); ok {
			cfg.LLM = mergeDiscovered(cfg.LLM, discovered)
		} else {
			cfg.LLM.Provider = d.Provider
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeDiscovered keeps explicitly configured models while taking the
// discovered provider and key.
func mergeDiscovered(base, found llm.Config) llm.Config {
	base.Provider = found.Provider
	base.SetAPIKey(found.Provider, found.APIKey(found.Provider))
	return base
}

// Validate rejects settings no component could start with.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("unknown store backend %q (want sqlite, redis or memory)", c.Store.Backend)
	}
	if c.Server.RatePerSecond <= 0 || c.Server.RateBurst <= 0 {
		return fmt.Errorf("server rate limit must be positive")
	}
	return nil
}
