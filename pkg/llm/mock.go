package llm

import (
	"context"
	"sync"
	"time"
)

// MockProvider is a scriptable Provider for tests. Responses are returned in
// order; when the script is exhausted the last entry repeats.
type MockProvider struct {
	// ProviderName is returned by Name(). Defaults to "mock".
	ProviderName string

	// Responses are returned in sequence by Complete.
	Responses []string

	// Err, when set, is returned by every Complete call.
	Err error

	mu       sync.Mutex
	calls    int
	requests []Request
}

// Name implements Provider.
func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Models implements Provider.
func (m *MockProvider) Models() []ModelInfo {
	return []ModelInfo{{ID: "mock-model", Name: "Mock Model"}}
}

// DefaultModel implements Provider.
func (m *MockProvider) DefaultModel() string {
	return "mock-model"
}

// Complete implements Provider.
func (m *MockProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	m.calls++

	if m.Err != nil {
		return nil, m.Err
	}

	content := ""
	if len(m.Responses) > 0 {
		idx := m.calls - 1
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		}
		content = m.Responses[idx]
	}

	model := req.Model
	if model == "" {
		model = m.DefaultModel()
	}

	return &Response{
		Content:  content,
		Provider: m.Name(),
		Model:    model,
		Usage: TokenUsage{
			InputTokens:  len(req.Prompt) / 4,
			OutputTokens: len(content) / 4,
			TotalTokens:  len(req.Prompt)/4 + len(content)/4,
		},
		LatencyMS: 1,
		Created:   time.Now(),
	}, nil
}

// Calls returns how many times Complete was invoked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of every request received.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

var _ Provider = (*MockProvider)(nil)
