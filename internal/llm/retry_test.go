package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2,
	}
}

func offline() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("dial tcp: connection refused")}}
}

func malformed() MockResponse {
	return MockResponse{Err: &ErrInvalidResponse{Err: errors.New("missing field")}}
}

func TestRetryAttempts(t *testing.T) {
	cases := []struct {
		name      string
		responses []MockResponse
		calls     int
		ok        bool
	}{
		{"first try", []MockResponse{TextResponse("Hola")}, 1, true},
		{"recovers after outage", []MockResponse{offline(), offline(), TextResponse("Hola")}, 3, true},
		{"gives up after budget", []MockResponse{offline(), offline(), offline(), TextResponse("Hola")}, 3, false},
		{"truncation is final", []MockResponse{{Err: &ErrMaxTokensExceeded{}}, TextResponse("Hola")}, 1, false},
		{"rejection is final", []MockResponse{{Err: &ErrRejected{Vendor: "openai", Status: 401, Err: errors.New("bad key")}}, TextResponse("Hola")}, 1, false},
		{"missing model is final", []MockResponse{{Err: fmt.Errorf("%w: qwen3:1.7b", ErrModelMissing)}, TextResponse("Hola")}, 1, false},
		{"one resample for malformed JSON", []MockResponse{malformed(), TextResponse("Hola")}, 2, true},
		{"second malformed reply is final", []MockResponse{malformed(), malformed(), TextResponse("Hola")}, 2, false},
		{"malformed budget survives outages", []MockResponse{malformed(), offline(), TextResponse("Hola")}, 3, true},
		{"rate limit waits and retries", []MockResponse{{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}}, TextResponse("Hola")}, 2, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := NewMockProvider(tc.responses...)
			resp, err := WithRetry(mock, fastRetry()).Generate(context.Background(), UserPrompt("", "Hello"))

			assert.Equal(t, tc.calls, mock.CallCount())
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Hola", resp.Text())
		})
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	mock := NewMockProvider(offline(), TextResponse("Hola"))
	p := WithRetry(mock, RetryConfig{MaxAttempts: 2, InitialWait: time.Hour, MaxWait: time.Hour, Multiplier: 1})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := p.Generate(ctx, UserPrompt("", "Hello"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetryZeroAttemptsStillCalls(t *testing.T) {
	mock := NewMockProvider(TextResponse("Hola"))
	_, err := WithRetry(mock, RetryConfig{}).Generate(context.Background(), UserPrompt("", "Hello"))
	require.NoError(t, err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetryDelay(t *testing.T) {
	r := WithRetry(NewMockProvider(), RetryConfig{
		MaxAttempts: 5,
		InitialWait: 100 * time.Millisecond,
		MaxWait:     300 * time.Millisecond,
		Multiplier:  2,
	}).(*RetryProvider)

	within := func(d, want time.Duration) {
		t.Helper()
		assert.GreaterOrEqual(t, d, want*8/10)
		assert.LessOrEqual(t, d, want*12/10)
	}
	within(r.delay(0, errors.New("x")), 100*time.Millisecond)
	within(r.delay(1, errors.New("x")), 200*time.Millisecond)
	within(r.delay(4, errors.New("x")), 300*time.Millisecond)

	assert.Equal(t, 7*time.Second, r.delay(0, &ErrRateLimit{RetryAfter: 7 * time.Second}))
}

func TestRetryUnwrapAndModel(t *testing.T) {
	mock := NewMockProvider()
	p := WithRetry(WithLogging(mock, nil, nil), fastRetry())
	assert.Equal(t, "mock", p.ModelID())
	assert.Equal(t, "mock", providerName(p))
}
