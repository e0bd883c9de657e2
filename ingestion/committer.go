package ingestion

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage"
	"golang.org/x/time/rate"
)

const (
	DefaultBatchSize = 20
	DefaultPacing    = 50 * time.Millisecond
)

// CommitResult summarizes a commit pass.
type CommitResult struct {
	Committed     int
	Batches       int
	FailedBatches int

	// FailedParents holds the parent ids of chunks in failed batches.
	FailedParents map[string]struct{}
}

// BatchCommitter writes chunks to a vector index in paced batches.
// A failed batch is logged and skipped; it never stops later batches.
type BatchCommitter struct {
	index     storage.VectorIndex
	batchSize int
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewBatchCommitter creates a committer. pacing is the minimum interval
// between the starts of consecutive batches; zero disables pacing.
func NewBatchCommitter(index storage.VectorIndex, batchSize int, pacing time.Duration, logger *slog.Logger) *BatchCommitter {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if pacing > 0 {
		limit = rate.Every(pacing)
	}
	return &BatchCommitter{
		index:     index,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger.With("component", "batch-committer"),
	}
}

// BatchSize returns the configured batch size.
func (c *BatchCommitter) BatchSize() int {
	return c.batchSize
}

// Commit writes chunks in order, calling onBatch (if non-nil) with the
// running totals after each batch.
func (c *BatchCommitter) Commit(ctx context.Context, chunks []core.Chunk, onBatch func(CommitResult)) CommitResult {
	result := CommitResult{FailedParents: make(map[string]struct{})}

	for start := 0; start < len(chunks); start += c.batchSize {
		if err := c.limiter.Wait(ctx); err != nil {
			c.logger.Error("commit interrupted", "remaining", len(chunks)-start, "err", err)
			break
		}

		end := min(start+c.batchSize, len(chunks))
		batch := chunks[start:end]

		if err := c.index.Add(ctx, batch); err != nil {
			c.logger.Error("batch commit failed, skipping",
				"batch", result.Batches+1, "size", len(batch), "first", batch[0].ID, "err", err)
			result.FailedBatches++
			for _, chunk := range batch {
				result.FailedParents[chunk.ParentID] = struct{}{}
			}
		} else {
			result.Committed += len(batch)
			c.logger.Debug("batch committed", "batch", result.Batches+1, "size", len(batch))
		}
		result.Batches++

		if onBatch != nil {
			onBatch(result)
		}
	}
	return result
}
