package llm

import (
	"context"
	"sync"
)

// MockClient is a deterministic Client. With no handler it echoes a fixed
// reply; tests install a handler to script responses or failures.
type MockClient struct {
	config  *Config
	mu      sync.Mutex
	handler func(ChatRequest) (*ChatResponse, error)
	calls   []ChatRequest
}

// MockReply is returned by a MockClient without a handler.
const MockReply = "mock response"

// NewMockClient returns a mock client. config may be nil.
func NewMockClient(config *Config) *MockClient {
	if config == nil {
		config = &Config{Provider: ProviderMock, Models: map[ModelTier]string{TierSummary: "mock-model"}}
	}
	return &MockClient{config: config}
}

// WithHandler sets the function answering Chat calls.
func (m *MockClient) WithHandler(fn func(ChatRequest) (*ChatResponse, error)) *MockClient {
	m.mu.Lock()
	m.handler = fn
	m.mu.Unlock()
	return m
}

// Chat records the request and answers it.
func (m *MockClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindGeneration, Provider: ProviderMock, Message: "context done", Cause: err}
	}

	m.mu.Lock()
	m.calls = append(m.calls, req)
	handler := m.handler
	m.mu.Unlock()

	if handler != nil {
		return handler(req)
	}
	return &ChatResponse{Content: MockReply, Model: req.model(m.config), FinishReason: "stop"}, nil
}

// Calls returns the requests seen so far.
func (m *MockClient) Calls() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatRequest(nil), m.calls...)
}

// Config returns the client configuration.
func (m *MockClient) Config() *Config { return m.config }

// Close is a no-op.
func (m *MockClient) Close() error { return nil }
