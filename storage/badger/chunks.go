package badger

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage"
)

const defaultChunkBatchSize = 100

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend is owned by the caller.
func (r *ChunkRepository) Close() error {
	return nil
}

// UpsertChunks writes records in a single transaction, replacing any with the same ID.
func (r *ChunkRepository) UpsertChunks(ctx context.Context, records ...*core.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, record := range records {
			if record.IndexedAt.IsZero() {
				record.IndexedAt = now
			}
			if err := tx.Set(makeChunkKey(record.ID), storage.MarshalChunkRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunk retrieves a single chunk record by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id string) (*core.ChunkRecord, error) {
	var record *core.ChunkRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChunkKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			record, unmarshalErr = storage.UnmarshalChunkRecord(val)
			return unmarshalErr
		})
	}, false)
	return record, err
}

// CountChunks returns the number of stored chunk records.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	return r.backend.countPrefix([]byte(chunkRecordPrefix))
}

// ForEachChunkBatch walks all chunk records in key order.
// Each batch is read in its own transaction so fn may write to the repository.
func (r *ChunkRepository) ForEachChunkBatch(ctx context.Context, batchSize int, fn func([]*core.ChunkRecord) error) error {
	if batchSize <= 0 {
		batchSize = defaultChunkBatchSize
	}

	var lastKey []byte
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, next, err := r.readBatch(lastKey, batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
		lastKey = next
	}
}

// readBatch reads up to limit records with keys strictly after lastKey.
// Returns the last key read.
func (r *ChunkRepository) readBatch(lastKey []byte, limit int) ([]*core.ChunkRecord, []byte, error) {
	var (
		batch    []*core.ChunkRecord
		lastRead []byte
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		if lastKey == nil {
			iter.Rewind()
		} else {
			iter.Seek(lastKey)
		}
		for ; iter.Valid() && len(batch) < limit; iter.Next() {
			item := iter.Item()
			if lastKey != nil && bytes.Equal(item.Key(), lastKey) {
				continue
			}
			err := item.Value(func(val []byte) error {
				record, err := storage.UnmarshalChunkRecord(val)
				if err != nil {
					return err
				}
				batch = append(batch, record)
				return nil
			})
			if err != nil {
				return err
			}
			lastRead = item.KeyCopy(nil)
		}
		return nil
	}, false)
	return batch, lastRead, err
}
