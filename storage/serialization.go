// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docindex/core"
)

// ChunkRecordMUS is the MUS serializer for core.ChunkRecord.
// Metadata entries are written in key order so equal records encode to equal bytes.
var ChunkRecordMUS = chunkRecordMUS{}

type chunkRecordMUS struct{}

func (chunkRecordMUS) Marshal(r core.ChunkRecord, bs []byte) (n int) {
	n = ord.String.Marshal(r.ID, bs)
	n += ord.String.Marshal(r.ParentID, bs[n:])
	n += varint.Int.Marshal(r.SequenceIndex, bs[n:])
	n += ord.String.Marshal(r.Text, bs[n:])
	n += varint.Int.Marshal(len(r.Metadata), bs[n:])
	for _, k := range sortedKeys(r.Metadata) {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(r.Metadata[k], bs[n:])
	}
	n += varint.Int.Marshal(len(r.Vector), bs[n:])
	for _, f := range r.Vector {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	n += ord.String.Marshal(r.Model, bs[n:])
	n += varint.Int64.Marshal(timeToMicros(r.IndexedAt), bs[n:])
	return n
}

func (chunkRecordMUS) Unmarshal(bs []byte) (r core.ChunkRecord, n int, err error) {
	var m int
	if r.ID, m, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	n += m
	if r.ParentID, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.SequenceIndex, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.Text, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m

	var count int
	if count, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if count < 0 {
		err = fmt.Errorf("%w: negative metadata length", ErrSerializationFailed)
		return
	}
	if count > 0 {
		r.Metadata = make(core.Metadata, count)
	}
	for range count {
		var k, v string
		if k, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += m
		if v, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += m
		r.Metadata[k] = v
	}

	if count, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if count < 0 {
		err = fmt.Errorf("%w: negative vector length", ErrSerializationFailed)
		return
	}
	if count > 0 {
		r.Vector = make([]float32, count)
	}
	for i := range count {
		var bits uint32
		if bits, m, err = varint.Uint32.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += m
		r.Vector[i] = math.Float32frombits(bits)
	}

	if r.Model, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	var micros int64
	if micros, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	r.IndexedAt = microsToTime(micros)
	return
}

func (chunkRecordMUS) Size(r core.ChunkRecord) (size int) {
	size = ord.String.Size(r.ID)
	size += ord.String.Size(r.ParentID)
	size += varint.Int.Size(r.SequenceIndex)
	size += ord.String.Size(r.Text)
	size += varint.Int.Size(len(r.Metadata))
	for k, v := range r.Metadata {
		size += ord.String.Size(k) + ord.String.Size(v)
	}
	size += varint.Int.Size(len(r.Vector))
	for _, f := range r.Vector {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	size += ord.String.Size(r.Model)
	size += varint.Int64.Size(timeToMicros(r.IndexedAt))
	return size
}

// MarshalChunkRecord serializes a ChunkRecord to bytes.
func MarshalChunkRecord(record *core.ChunkRecord) []byte {
	buf := make([]byte, ChunkRecordMUS.Size(*record))
	ChunkRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalChunkRecord deserializes a ChunkRecord from bytes.
func UnmarshalChunkRecord(data []byte) (*core.ChunkRecord, error) {
	record, n, err := ChunkRecordMUS.Unmarshal(data)
	if errors.Is(err, mus.ErrTooSmallByteSlice) {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, ErrTruncatedData)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return &record, nil
}

func sortedKeys(m core.Metadata) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Zero time is stored as 0 so it survives a round trip.
func timeToMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microsToTime(micros int64) time.Time {
	if micros == 0 {
		return time.Time{}
	}
	return time.UnixMicro(micros).UTC()
}
