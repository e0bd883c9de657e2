package ai

import "context"

// Embedder generates vector embeddings from chunk text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple texts in one call.
	// The returned slice is in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider owns an Embedder and any resources it shares.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Model returns the identifier of the embedding model in use.
	Model() string

	// Close releases resources held by the provider.
	Close() error
}
