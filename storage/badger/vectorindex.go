package badger

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/docindex/ai"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage"
)

// VectorIndex is a local storage.VectorIndex. Each Add embeds the batch and
// upserts the resulting records into a ChunkRepository keyed by chunk ID.
type VectorIndex struct {
	repo       storage.ChunkRepository
	embedder   ai.Embedder
	model      string
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

var _ storage.VectorIndex = (*VectorIndex)(nil)

// VectorIndexOption configures a VectorIndex.
type VectorIndexOption func(*VectorIndex)

// WithRetry sets the retry policy for embedding calls.
func WithRetry(maxRetries int, delay time.Duration) VectorIndexOption {
	return func(v *VectorIndex) {
		if maxRetries > 0 {
			v.maxRetries = maxRetries
		}
		if delay >= 0 {
			v.retryDelay = delay
		}
	}
}

// WithModel records the embedding model name on every stored chunk.
func WithModel(model string) VectorIndexOption {
	return func(v *VectorIndex) {
		v.model = model
	}
}

// WithIndexLogger sets a custom logger.
func WithIndexLogger(logger *slog.Logger) VectorIndexOption {
	return func(v *VectorIndex) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewVectorIndex creates a vector index over repo using embedder.
func NewVectorIndex(repo storage.ChunkRepository, embedder ai.Embedder, opts ...VectorIndexOption) *VectorIndex {
	v := &VectorIndex{
		repo:       repo,
		embedder:   embedder,
		maxRetries: ai.DefaultMaxRetries,
		retryDelay: ai.DefaultRetryDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With("component", "vector-index")
	return v
}

// Add embeds chunks and writes them. Either the whole batch is written or
// none of it is.
func (v *VectorIndex) Add(ctx context.Context, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	vectors, err := ai.EmbedNormalized(ctx, v.embedder, texts, v.maxRetries, v.retryDelay)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	records := make([]*core.ChunkRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = &core.ChunkRecord{
			ID:            chunk.ID,
			ParentID:      chunk.ParentID,
			SequenceIndex: chunk.SequenceIndex,
			Text:          chunk.Text,
			Metadata:      chunk.Metadata.Clone(),
			Vector:        vectors[i],
			Model:         v.model,
			IndexedAt:     now,
		}
	}

	if err := v.repo.UpsertChunks(ctx, records...); err != nil {
		return err
	}
	v.logger.Debug("indexed chunks", "count", len(records))
	return nil
}
