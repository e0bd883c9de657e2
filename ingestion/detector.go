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

package ingestion

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage"
)

// DefaultFingerprintPrefix namespaces fingerprint keys as "docmeta:<id>".
const DefaultFingerprintPrefix = "docmeta"

// Verdict is the outcome of checking one document against its fingerprint.
type Verdict struct {
	DocumentID string
	Hash       string
	Changed    bool

	// LookupErr is set when the stored fingerprint could not be read.
	// Such documents are always reported as changed.
	LookupErr error
}

// ChangeDetector compares document content hashes with the fingerprint store.
// It is not safe for overlapping runs; the Pipeline guarantees there are none.
type ChangeDetector struct {
	store    storage.FingerprintStore
	hasher   *core.Hasher
	prefix   string
	deferred bool
	logger   *slog.Logger
}

// DetectorOption configures a ChangeDetector.
type DetectorOption func(*ChangeDetector) error

// WithFingerprintPrefix sets the key prefix. Default "docmeta".
func WithFingerprintPrefix(prefix string) DetectorOption {
	return func(d *ChangeDetector) error {
		if prefix != "" {
			d.prefix = prefix
		}
		return nil
	}
}

// WithHashAlgorithm selects the content hash.
func WithHashAlgorithm(algorithm core.HashAlgorithm) DetectorOption {
	return func(d *ChangeDetector) error {
		hasher, err := core.NewHasher(algorithm)
		if err != nil {
			return err
		}
		d.hasher = hasher
		return nil
	}
}

// WithDeferredRecording makes IsChanged leave the store untouched. The
// pipeline then records fingerprints only after a document's chunks have
// all been committed.
func WithDeferredRecording(deferred bool) DetectorOption {
	return func(d *ChangeDetector) error {
		d.deferred = deferred
		return nil
	}
}

// WithDetectorLogger sets a custom logger.
func WithDetectorLogger(logger *slog.Logger) DetectorOption {
	return func(d *ChangeDetector) error {
		if logger != nil {
			d.logger = logger
		}
		return nil
	}
}

// NewChangeDetector creates a detector over store.
func NewChangeDetector(store storage.FingerprintStore, opts ...DetectorOption) (*ChangeDetector, error) {
	if store == nil {
		return nil, ErrFingerprintStoreRequired
	}
	hasher, _ := core.NewHasher(core.HashMD5)
	d := &ChangeDetector{
		store:  store,
		hasher: hasher,
		prefix: DefaultFingerprintPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	d.logger = d.logger.With("component", "change-detector")
	return d, nil
}

// Deferred reports whether fingerprints are recorded after commit.
func (d *ChangeDetector) Deferred() bool {
	return d.deferred
}

// Key returns the fingerprint store key for a document id.
func (d *ChangeDetector) Key(documentID string) string {
	return d.prefix + ":" + documentID
}

// Check hashes doc and compares it with the stored fingerprint without
// writing anything. A failed lookup counts as changed.
func (d *ChangeDetector) Check(ctx context.Context, doc *core.SourceDocument) Verdict {
	v := Verdict{
		DocumentID: doc.ID,
		Hash:       d.hasher.Hash(core.RawOf(doc.Content)),
	}

	prior, err := d.store.Get(ctx, d.Key(doc.ID))
	switch {
	case err == nil:
		v.Changed = prior != v.Hash
	case errors.Is(err, storage.ErrNotFound):
		v.Changed = true
	default:
		d.logger.Warn("fingerprint lookup failed, treating document as changed", "id", doc.ID, "err", err)
		v.Changed = true
		v.LookupErr = err
	}
	return v
}

// IsChanged reports whether doc differs from its recorded fingerprint.
// Unless recording is deferred, a changed document's new fingerprint is
// written before returning.
func (d *ChangeDetector) IsChanged(ctx context.Context, doc *core.SourceDocument) bool {
	v := d.Check(ctx, doc)
	if v.Changed && !d.deferred {
		if err := d.Record(ctx, v.DocumentID, v.Hash); err != nil {
			d.logger.Error("failed to record fingerprint", "id", v.DocumentID, "err", err)
		}
	}
	return v.Changed
}

// Record stores hash as the fingerprint of documentID.
func (d *ChangeDetector) Record(ctx context.Context, documentID, hash string) error {
	return d.store.Set(ctx, d.Key(documentID), hash)
}
