package mock

import "github.com/poiesic/docindex/ai"

// MockProvider implements ai.Provider around a MockEmbedder.
type MockProvider struct {
	embedder *MockEmbedder
	model    string
	closed   bool
}

// NewMockProvider returns a provider reporting the given model name.
func NewMockProvider(model string) *MockProvider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		model:    model,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// MockEmbedder returns the concrete embedder for assertions.
func (p *MockProvider) MockEmbedder() *MockEmbedder {
	return p.embedder
}

// Model returns the configured model name.
func (p *MockProvider) Model() string {
	return p.model
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}
