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

// Package storage provides the storage abstraction layer for docindex.
//
// This package defines the interfaces the indexing pipeline writes through:
//
//   - FingerprintStore: content hashes keyed by "<prefix>:<documentId>"
//   - VectorIndex: upsert-by-id sink for chunks
//   - ChunkRepository: persisted chunk records (text, metadata, vector)
//
// Implementations live in sub-packages:
//
//   - storage/badger: BadgerDB fingerprint store, chunk repository and a local
//     vector index that embeds chunks before writing them
//   - storage/sqlite: SQLite fingerprint store
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	fingerprints := badger.NewFingerprintStore(backend)
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
