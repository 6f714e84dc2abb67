package llm

import (
	"context"
	"sync"
)

// MockProvider is a scripted LLM provider for testing.
type MockProvider struct {
	mu          sync.Mutex
	responses   []string
	response    string
	err         error
	callCount   int
	lastRequest *ChatRequest

	// ChatFunc can be overridden for custom behavior.
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// NewMockProvider creates a new mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// SetResponse sets the response content for every call.
func (p *MockProvider) SetResponse(content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.response = content
	p.responses = nil
}

// QueueResponses sets one response per successive call; the last entry
// repeats once the queue is drained.
func (p *MockProvider) QueueResponses(contents ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = contents
}

// SetError sets an error to return.
func (p *MockProvider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// LastRequest returns the last request.
func (p *MockProvider) LastRequest() *ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRequest
}

// CallCount returns the number of Chat calls made.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.callCount
}

// Chat implements the Provider interface.
func (p *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	p.mu.Lock()
	p.callCount++
	p.lastRequest = &req
	fn := p.ChatFunc
	err := p.err
	content := p.response
	if len(p.responses) > 0 {
		content = p.responses[0]
		if len(p.responses) > 1 {
			p.responses = p.responses[1:]
		}
	}
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return &ChatResponse{
		Content:    content,
		StopReason: "end_turn",
	}, nil
}
