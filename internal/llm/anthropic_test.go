package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messagesServer struct {
	status  int
	headers map[string]string
	reply   map[string]any
	body    map[string]any
}

func (s *messagesServer) provider(t *testing.T, model string) *AnthropicProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&s.body)
		for k, v := range s.headers {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", "application/json")
		if s.status != 0 {
			w.WriteHeader(s.status)
		}
		_ = json.NewEncoder(w).Encode(s.reply)
	}))
	t.Cleanup(srv.Close)

	p, err := NewAnthropicProvider(
		AnthropicConfig{APIKey: "sk-ant-test", Model: model},
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	require.NoError(t, err)
	return p
}

func message(stop string, texts ...string) map[string]any {
	blocks := make([]map[string]any, len(texts))
	for i, s := range texts {
		blocks[i] = map[string]any{"type": "text", "text": s}
	}
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-haiku-4-5-20251001",
		"content":     blocks,
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 52, "output_tokens": 14},
	}
}

func apiError(kind string) map[string]any {
	return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": kind}}
}

func TestAnthropicSummarize(t *testing.T) {
	srv := &messagesServer{reply: message("end_turn", "El gato duerme ", "en el sofá.")}
	p := srv.provider(t, "claude-haiku")

	resp, err := p.Generate(context.Background(), UserPrompt("Summarize in one sentence.", "El gato está durmiendo en el sofá toda la tarde."))
	require.NoError(t, err)

	assert.Equal(t, "El gato duerme en el sofá.", resp.Text())
	assert.Equal(t, Usage{InputTokens: 52, OutputTokens: 14, TotalTokens: 66}, resp.Usage)
	assert.Equal(t, "end", resp.StopReason)

	assert.Equal(t, "claude-haiku-4-5-20251001", srv.body["model"])
	assert.EqualValues(t, 1024, srv.body["max_tokens"])
	system := srv.body["system"].([]any)
	assert.Equal(t, "Summarize in one sentence.", system[0].(map[string]any)["text"])
}

func TestAnthropicJSONModeUsesInstruction(t *testing.T) {
	srv := &messagesServer{reply: message("end_turn", "```json\n{\"text\":\"ok\"}\n```")}
	p := srv.provider(t, "claude-sonnet")

	req := UserPrompt("Answer the prompt.", "Say ok")
	req.JSON = true
	resp, err := p.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"text":"ok"}`, string(resp.Content))

	system := srv.body["system"].([]any)[0].(map[string]any)["text"].(string)
	assert.Contains(t, system, "Answer the prompt.")
	assert.Contains(t, system, jsonInstruction)
}

func TestAnthropicTruncatedStructuredReply(t *testing.T) {
	srv := &messagesServer{reply: message("max_tokens", `{"questions":[{"q":`)}
	p := srv.provider(t, "claude-haiku")

	req := UserPrompt("Write a quiz.", "texto")
	req.JSON = true
	_, err := p.Generate(context.Background(), req)
	var truncated *ErrMaxTokensExceeded
	assert.ErrorAs(t, err, &truncated)
}

func TestAnthropicNoText(t *testing.T) {
	srv := &messagesServer{reply: message("end_turn")}
	_, err := srv.provider(t, "claude-haiku").Generate(context.Background(), UserPrompt("", "hi"))
	var invalid *ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
}

func TestAnthropicErrors(t *testing.T) {
	t.Run("rate limit carries retry-after", func(t *testing.T) {
		srv := &messagesServer{
			status:  http.StatusTooManyRequests,
			headers: map[string]string{"Retry-After": "3"},
			reply:   apiError("rate_limit_error"),
		}
		_, err := srv.provider(t, "claude-haiku").Generate(context.Background(), UserPrompt("", "hi"))
		var rl *ErrRateLimit
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, 3*time.Second, rl.RetryAfter)
	})

	t.Run("overloaded is unavailable", func(t *testing.T) {
		srv := &messagesServer{status: 529, reply: apiError("overloaded_error")}
		_, err := srv.provider(t, "claude-haiku").Generate(context.Background(), UserPrompt("", "hi"))
		assert.True(t, IsUnavailable(err), "got %v", err)
	})

	t.Run("bad key is rejected", func(t *testing.T) {
		srv := &messagesServer{status: http.StatusUnauthorized, reply: apiError("authentication_error")}
		_, err := srv.provider(t, "claude-haiku").Generate(context.Background(), UserPrompt("", "hi"))
		var rej *ErrRejected
		require.ErrorAs(t, err, &rej)
		assert.Equal(t, "anthropic", rej.Vendor)
	})
}

func TestAnthropicModels(t *testing.T) {
	for name, want := range map[string]string{
		"claude-sonnet":            "claude-sonnet-4-5",
		"claude-haiku":             "claude-haiku-4-5-20251001",
		"claude-sonnet-4-20250514": "claude-sonnet-4-20250514",
		"":                         "claude-haiku-4-5-20251001",
	} {
		p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "sk-ant-test", Model: name})
		require.NoError(t, err)
		assert.Equal(t, want, p.ModelID(), name)
	}

	_, err := NewAnthropicProvider(AnthropicConfig{})
	assert.Error(t, err)
}
