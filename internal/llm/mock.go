package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one scripted reply of a MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error

	// Truncated marks the reply as cut off at the token limit.
	Truncated bool
}

// TextResponse scripts a plain-text reply.
func TextResponse(text string) MockResponse {
	return MockResponse{Content: json.RawMessage(text)}
}

// MockProvider replays scripted replies in order and records each request.
// Replies go through the same post-processing as hosted engines, so schema
// validation and truncation behave as they would in production.
type MockProvider struct {
	mu     sync.Mutex
	script []MockResponse
	calls  []Request
}

func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{script: responses}
}

// Generate pops the next scripted reply. An exhausted script reads as an
// unreachable engine.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	if len(m.script) == 0 {
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{}
	}
	next := m.script[0]
	m.script = m.script[1:]
	m.mu.Unlock()

	if next.Err != nil {
		return nil, next.Err
	}
	return settle(req, completion{
		text:      string(next.Content),
		model:     "mock",
		usage:     next.Usage,
		truncated: next.Truncated,
	})
}

func (m *MockProvider) ModelID() string { return "mock" }

func (m *MockProvider) Vendor() string { return ProviderMock }

// AddResponse appends to the script.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	m.script = append(m.script, resp)
	m.mu.Unlock()
}

// Pending reports how many scripted replies are left.
func (m *MockProvider) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.script)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the latest request, or a zero Request before any call.
func (m *MockProvider) LastCall() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Request{}
	}
	return m.calls[len(m.calls)-1]
}
