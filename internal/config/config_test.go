package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearVendorKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	Bind(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	clearVendorKeys(t)

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "qwen3:1.7b", cfg.LLM.Ollama.Model)
	assert.Equal(t, 3, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Capabilities.WaitForProvisioning)
	assert.Empty(t, cfg.Capabilities.Disabled)
	assert.Equal(t, "en", cfg.Notebook.TargetLanguage)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearVendorKeys(t)
	t.Setenv("LINGOPAD_LLM_OLLAMA_MODEL", "gemma3:1b")
	t.Setenv("LINGOPAD_STORE_BACKEND", "memory")
	t.Setenv("LINGOPAD_SERVER_RATE_BURST", "3")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "gemma3:1b", cfg.LLM.Ollama.Model)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Server.RateBurst)
}

func TestLoad_AutoDiscoversVendorKey(t *testing.T) {
	clearVendorKeys(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model)
}

func TestLoad_ExplicitProviderSkipsDiscovery(t *testing.T) {
	clearVendorKeys(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	v := newViper()
	v.Set("llm.provider", "mock")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearVendorKeys(t)
	path := filepath.Join(t.TempDir(), "lingopad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: mock
store:
  backend: redis
  redis:
    addr: redis.internal:6379
    prefix: "lp:"
capabilities:
  disabled: [rewrite, write]
  wait_for_provisioning: false
`), 0o644))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "redis.internal:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "lp:", cfg.Store.Redis.Prefix)
	assert.Equal(t, []string{"rewrite", "write"}, cfg.Capabilities.Disabled)
	assert.False(t, cfg.Capabilities.WaitForProvisioning)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	clearVendorKeys(t)

	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"unknown backend", "store.backend", "postgres"},
		{"unknown provider", "llm.provider", "watson"},
		{"missing key", "llm.provider", "anthropic"},
		{"zero rate", "server.rate_per_second", 0.0},
		{"zero attempts", "llm.retry.max_attempts", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}
