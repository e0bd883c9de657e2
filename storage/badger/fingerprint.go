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

package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docindex/storage"
)

// FingerprintStore implements storage.FingerprintStore for BadgerDB.
type FingerprintStore struct {
	backend *Backend
}

var _ storage.FingerprintStore = (*FingerprintStore)(nil)

// NewFingerprintStore creates a new FingerprintStore.
func NewFingerprintStore(backend *Backend) *FingerprintStore {
	return &FingerprintStore{
		backend: backend,
	}
}

// Get returns the recorded hash for key.
func (s *FingerprintStore) Get(ctx context.Context, key string) (string, error) {
	var hash string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFingerprintKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			hash = string(val)
			return nil
		})
	}, false)
	return hash, err
}

// Set records hash for key.
func (s *FingerprintStore) Set(ctx context.Context, key, hash string) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeFingerprintKey(key), []byte(hash)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Count returns the number of recorded fingerprints.
func (s *FingerprintStore) Count(ctx context.Context) (int, error) {
	return s.backend.countPrefix([]byte(fingerprintPrefix))
}

// Close is a no-op; the backend is owned by the caller.
func (s *FingerprintStore) Close() error {
	return nil
}
