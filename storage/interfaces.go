package storage

import (
	"context"

	"github.com/poiesic/docindex/core"
)

// FingerprintStore is a persistent key-value store of content hashes.
// Keys are fully qualified by the caller, e.g. "docmeta:doc-guide.md".
// Implementations must be thread-safe.
type FingerprintStore interface {
	// Get returns the stored hash for key.
	// Returns ErrNotFound if no hash has been recorded.
	Get(ctx context.Context, key string) (string, error)

	// Set records hash for key, replacing any previous value.
	Set(ctx context.Context, key, hash string) error

	// Count returns the number of recorded fingerprints.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// VectorIndex accepts chunks for indexing.
// Add has upsert-by-id semantics: adding a chunk whose ID already exists
// replaces the stored chunk.
type VectorIndex interface {
	Add(ctx context.Context, chunks []core.Chunk) error
}

// ChunkRepository provides operations for persisted chunk records.
type ChunkRepository interface {
	// UpsertChunks writes records, replacing any with the same ID.
	// Sets IndexedAt if not already set.
	UpsertChunks(ctx context.Context, records ...*core.ChunkRecord) error

	// GetChunk retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetChunk(ctx context.Context, id string) (*core.ChunkRecord, error)

	// CountChunks returns the number of stored records.
	CountChunks(ctx context.Context) (int, error)

	// ForEachChunkBatch calls fn with consecutive batches of records in ID order.
	// Iteration stops at the first error returned by fn.
	ForEachChunkBatch(ctx context.Context, batchSize int, fn func([]*core.ChunkRecord) error) error

	// Close releases resources held by the repository.
	Close() error
}
