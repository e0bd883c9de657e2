package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/docindex/ai"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage"
)

// BatchProcessor regenerates embeddings for batches of stored chunks.
type BatchProcessor struct {
	repo           storage.ChunkRepository
	embedder       ai.Embedder
	model          string
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor. model is recorded on
// every rewritten chunk.
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, model string, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		model:          model,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the text of each record and writes the records back.
// Records keep their id, text and metadata; only the vector, model and
// indexing time change.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text
	}

	vectors, err := ai.EmbedNormalized(ctx, bp.embedder, texts, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range records {
		records[i].Vector = vectors[i]
		records[i].Model = bp.model
		records[i].IndexedAt = now
	}

	if err := bp.repo.UpsertChunks(ctx, records...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}
	return nil
}
