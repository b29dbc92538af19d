package assistant

import (
	"context"
	"time"
)

// MockProvider implements Provider for testing. It returns a fixed response
// and records the last message list it was called with.
type MockProvider struct {
	FixedContent string
	PingErr      error
	CompleteErr  error

	LastMessages []Message
	LastOptions  Options
	Calls        int
}

// NewMockProvider creates a mock provider with a canned response.
func NewMockProvider(content string) *MockProvider {
	return &MockProvider{FixedContent: content}
}

func (p *MockProvider) Name() string { return "Mock" }

func (p *MockProvider) Ping(_ context.Context) error {
	return p.PingErr
}

func (p *MockProvider) Complete(_ context.Context, messages []Message, opts Options) (*Response, error) {
	p.Calls++
	p.LastMessages = messages
	p.LastOptions = opts
	if p.CompleteErr != nil {
		return nil, p.CompleteErr
	}
	return &Response{
		Content:    p.FixedContent,
		Model:      "mock",
		TokensUsed: 100,
		Duration:   time.Millisecond,
	}, nil
}
