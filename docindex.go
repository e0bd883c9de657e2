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

// Package docindex keeps a vector index in step with a set of document
// files. An Indexer owns the storage, the embedding provider and the
// indexing pipeline built from a config.Config.
package docindex

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/docindex/ai"
	"github.com/poiesic/docindex/ai/openai"
	"github.com/poiesic/docindex/config"
	"github.com/poiesic/docindex/ingestion"
	"github.com/poiesic/docindex/reembed"
	"github.com/poiesic/docindex/source"
	"github.com/poiesic/docindex/splitter"
	"github.com/poiesic/docindex/storage"
	"github.com/poiesic/docindex/storage/badger"
	"github.com/poiesic/docindex/storage/sqlite"
)

const closeTimeout = 30 * time.Second

// Indexer wires the indexing pipeline to its stores.
type Indexer struct {
	config       *config.Config
	backend      *badger.Backend
	chunks       *badger.ChunkRepository
	fingerprints storage.FingerprintStore
	provider     ai.Provider
	pipeline     *ingestion.Pipeline
	logger       *slog.Logger
}

// Counts reports what the stores hold.
type Counts struct {
	Fingerprints int `json:"fingerprints"`
	Chunks       int `json:"chunks"`
}

type IndexerOption func(*indexerOptions)

type indexerOptions struct {
	provider ai.Provider
	inMemory bool
	logger   *slog.Logger
}

// WithProvider supplies the embedding provider instead of building an
// OpenAI-compatible one from the config.
func WithProvider(provider ai.Provider) IndexerOption {
	return func(o *indexerOptions) {
		o.provider = provider
	}
}

// WithInMemoryStorage keeps the badger stores in memory.
func WithInMemoryStorage() IndexerOption {
	return func(o *indexerOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) IndexerOption {
	return func(o *indexerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewIndexer opens the stores named by cfg and builds the pipeline.
// A nil cfg means config.Default().
func NewIndexer(cfg *config.Config, opts ...IndexerOption) (*Indexer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &indexerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	backend, err := badger.OpenBackend(cfg.Storage.BadgerDir, options.inMemory)
	if err != nil {
		return nil, err
	}
	idx := &Indexer{
		config:  cfg,
		backend: backend,
		chunks:  badger.NewChunkRepository(backend),
		logger:  logger.With("component", "indexer"),
	}

	if err := idx.build(options); err != nil {
		idx.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Indexer) build(options *indexerOptions) error {
	cfg := idx.config
	logger := options.logger

	switch cfg.Fingerprints.Backend {
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return err
		}
		idx.fingerprints = store
	default:
		idx.fingerprints = badger.NewFingerprintStore(idx.backend)
	}

	idx.provider = options.provider
	if idx.provider == nil {
		provider, err := openai.NewProvider(cfg.AIConfig())
		if err != nil {
			return err
		}
		idx.provider = provider
	}

	enumerator, err := source.NewEnumerator(cfg.Source.Patterns,
		source.WithReadWorkers(cfg.Source.ReadWorkers),
		source.WithLogger(logger))
	if err != nil {
		return err
	}

	detector, err := ingestion.NewChangeDetector(idx.fingerprints,
		ingestion.WithFingerprintPrefix(cfg.Fingerprints.Prefix),
		ingestion.WithHashAlgorithm(cfg.Fingerprints.Hash),
		ingestion.WithDeferredRecording(cfg.Fingerprints.Deferred),
		ingestion.WithDetectorLogger(logger))
	if err != nil {
		return err
	}

	split, err := splitter.New(cfg.Splitter, splitter.WithLogger(logger))
	if err != nil {
		return err
	}

	index := badger.NewVectorIndex(idx.chunks, idx.provider.Embedder(),
		badger.WithModel(idx.provider.Model()),
		badger.WithRetry(cfg.Embedding.MaxRetries, cfg.Embedding.RetryDelay.Std()),
		badger.WithIndexLogger(logger))

	pipelineOpts := []ingestion.Option{
		ingestion.WithPoolSize(cfg.Pipeline.PoolSize),
		ingestion.WithQueueCapacity(cfg.Pipeline.QueueCapacity),
		ingestion.WithBatchSize(cfg.Commit.BatchSize),
		ingestion.WithPacing(cfg.Commit.Pacing.Std()),
		ingestion.WithLogger(logger),
	}
	if cfg.Source.Normalize.Enabled() {
		pipelineOpts = append(pipelineOpts, ingestion.WithNormalizer(source.NewNormalizer(cfg.Source.Normalize)))
	}

	idx.pipeline, err = ingestion.NewPipeline(enumerator, detector, split, index, pipelineOpts...)
	return err
}

// Start triggers an indexing run. See ingestion.Pipeline.Start.
func (idx *Indexer) Start() (*ingestion.Job, error) {
	return idx.pipeline.Start()
}

// Status returns the pipeline's current status.
func (idx *Indexer) Status() ingestion.Status {
	return idx.pipeline.Status()
}

// Pipeline returns the underlying job controller.
func (idx *Indexer) Pipeline() *ingestion.Pipeline {
	return idx.pipeline
}

// Config returns the configuration the indexer was built from.
func (idx *Indexer) Config() *config.Config {
	return idx.config
}

// ChunkRepository returns the chunk store.
func (idx *Indexer) ChunkRepository() storage.ChunkRepository {
	return idx.chunks
}

// Counts returns the number of stored fingerprints and chunks.
func (idx *Indexer) Counts(ctx context.Context) (Counts, error) {
	var counts Counts
	var err error
	if counts.Fingerprints, err = idx.fingerprints.Count(ctx); err != nil {
		return counts, err
	}
	if counts.Chunks, err = idx.chunks.CountChunks(ctx); err != nil {
		return counts, err
	}
	return counts, nil
}

// NewReembedder returns a reembedder over the stored chunks using the
// indexer's embedding provider. Zero sizes keep the reembed defaults.
func (idx *Indexer) NewReembedder(batchSize, reportInterval int, progress io.Writer) (*reembed.Reembedder, error) {
	cfg := reembed.DefaultConfig()
	if batchSize > 0 {
		cfg.BatchSize = batchSize
	}
	if reportInterval > 0 {
		cfg.ReportInterval = reportInterval
	}
	cfg.MaxRetries = idx.config.Embedding.MaxRetries
	cfg.RetryDelay = idx.config.Embedding.RetryDelay.Std()
	cfg.Model = idx.provider.Model()
	return reembed.NewReembedder(idx.chunks, idx.provider.Embedder(), cfg, progress)
}

// Watch triggers a run whenever files under the configured patterns
// change, until ctx is done. Triggers that arrive while a run is active
// are dropped.
func (idx *Indexer) Watch(ctx context.Context) error {
	watcher, err := source.NewWatcher(idx.config.Source.Patterns,
		source.WithDebounce(idx.config.Watch.Debounce.Std()),
		source.WithWatchLogger(idx.logger))
	if err != nil {
		return err
	}
	return watcher.Run(ctx, func(context.Context) {
		job, err := idx.Start()
		if err != nil {
			return
		}
		idx.logger.Info("change detected, indexing", "run_id", job.ID())
	})
}

// Close stops the worker pool and closes the stores and provider.
func (idx *Indexer) Close() error {
	var errs []error
	if idx.pipeline != nil {
		if err := idx.pipeline.ReleaseTimeout(closeTimeout); err != nil {
			idx.logger.Warn("indexing run still active at close", "err", err)
		}
	}
	if idx.provider != nil {
		if err := idx.provider.Close(); err != nil {
			idx.logger.Error("error closing embedding provider", "err", err)
			errs = append(errs, err)
		}
	}
	if idx.fingerprints != nil {
		if err := idx.fingerprints.Close(); err != nil {
			idx.logger.Error("error closing fingerprint store", "err", err)
			errs = append(errs, err)
		}
	}
	if err := idx.chunks.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := idx.backend.Close(); err != nil {
		idx.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
