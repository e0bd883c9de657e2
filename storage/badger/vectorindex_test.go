package badger

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/poiesic/docindex/ai/mock"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunks() []core.Chunk {
	return []core.Chunk{
		{ID: "guide_chunk_1", ParentID: "doc-guide.md", SequenceIndex: 1, Text: "first part", Metadata: core.Metadata{core.MetaChunkIndex: "1"}},
		{ID: "guide_chunk_2", ParentID: "doc-guide.md", SequenceIndex: 2, Text: "second part", Metadata: core.Metadata{core.MetaChunkIndex: "2"}},
	}
}

func TestVectorIndex_AddStoresNormalizedVectors(t *testing.T) {
	_, repo, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	index := NewVectorIndex(repo, embedder, WithModel("test-model"))

	require.NoError(t, index.Add(ctx, testChunks()))
	assert.Equal(t, []string{"first part", "second part"}, embedder.Texts())

	got, err := repo.GetChunk(ctx, "guide_chunk_2")
	require.NoError(t, err)
	assert.Equal(t, "second part", got.Text)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 2, got.SequenceIndex)

	var sum float64
	for _, v := range got.Vector {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestVectorIndex_AddIsUpsert(t *testing.T) {
	_, repo, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	index := NewVectorIndex(repo, mock.NewMockEmbedder())
	require.NoError(t, index.Add(ctx, testChunks()))
	require.NoError(t, index.Add(ctx, testChunks()))

	count, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestVectorIndex_EmbeddingFailureWritesNothing(t *testing.T) {
	_, repo, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("model unavailable")
	}
	index := NewVectorIndex(repo, embedder, WithRetry(2, time.Millisecond))

	assert.Error(t, index.Add(ctx, testChunks()))
	assert.Equal(t, 2, embedder.CallCount())

	_, err = repo.GetChunk(ctx, "guide_chunk_1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestVectorIndex_AddEmpty(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	index := NewVectorIndex(nil, embedder)

	require.NoError(t, index.Add(context.Background(), nil))
	assert.Zero(t, embedder.CallCount())
}
