package storage

import (
	"testing"
	"time"

	"github.com/poiesic/docindex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRecordSerialization(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name   string
		record *core.ChunkRecord
	}{
		{
			name: "full record",
			record: &core.ChunkRecord{
				ID:            "guide_chunk_1",
				ParentID:      "doc-guide.md",
				SequenceIndex: 1,
				Text:          "첫 번째 청크 text",
				Metadata: core.Metadata{
					core.MetaSource:     "guide.md",
					core.MetaChunkIndex: "1",
				},
				Vector:    []float32{0.25, -0.5, 1e-7},
				Model:     "embeddinggemma",
				IndexedAt: now,
			},
		},
		{
			name:   "minimal record",
			record: &core.ChunkRecord{ID: "x_chunk_1", Text: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalChunkRecord(tt.record)
			decoded, err := UnmarshalChunkRecord(data)
			require.NoError(t, err)

			assert.Equal(t, tt.record.ID, decoded.ID)
			assert.Equal(t, tt.record.ParentID, decoded.ParentID)
			assert.Equal(t, tt.record.SequenceIndex, decoded.SequenceIndex)
			assert.Equal(t, tt.record.Text, decoded.Text)
			assert.Equal(t, tt.record.Metadata, decoded.Metadata)
			assert.Equal(t, tt.record.Vector, decoded.Vector)
			assert.Equal(t, tt.record.Model, decoded.Model)
			assert.True(t, tt.record.IndexedAt.Equal(decoded.IndexedAt))
		})
	}
}

func TestChunkRecordSerialization_StableEncoding(t *testing.T) {
	record := &core.ChunkRecord{
		ID: "a_chunk_1",
		Metadata: core.Metadata{
			"b": "2", "a": "1", "c": "3", "d": "4",
		},
	}
	first := MarshalChunkRecord(record)
	for range 10 {
		assert.Equal(t, first, MarshalChunkRecord(record))
	}
}

func TestUnmarshalChunkRecord_Truncated(t *testing.T) {
	data := MarshalChunkRecord(&core.ChunkRecord{ID: "a_chunk_1", Text: "some text"})
	_, err := UnmarshalChunkRecord(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrSerializationFailed)
	assert.ErrorIs(t, err, ErrTruncatedData)

	_, err = UnmarshalChunkRecord(nil)
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestUnmarshalChunkRecord_TrailingBytes(t *testing.T) {
	data := MarshalChunkRecord(&core.ChunkRecord{ID: "a_chunk_1"})
	_, err := UnmarshalChunkRecord(append(data, 0x01))
	assert.ErrorIs(t, err, ErrSerializationFailed)
	assert.NotErrorIs(t, err, ErrTruncatedData)
}
