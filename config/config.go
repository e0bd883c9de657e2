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

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/docindex/ai"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/ingestion"
	"github.com/poiesic/docindex/source"
	"github.com/poiesic/docindex/splitter"
)

// Fingerprint store backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

const (
	DefaultPattern = "docs/**/*.md"
	DefaultDataDir = ".docindex"
)

// ErrInvalidConfig is returned for settings that cannot run.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete docindex configuration.
type Config struct {
	Source       SourceConfig      `toml:"source"`
	Splitter     splitter.Config   `toml:"splitter"`
	Fingerprints FingerprintConfig `toml:"fingerprints"`
	Commit       CommitConfig      `toml:"commit"`
	Pipeline     PipelineConfig    `toml:"pipeline"`
	Storage      StorageConfig     `toml:"storage"`
	Embedding    EmbeddingConfig   `toml:"embedding"`
	Watch        WatchConfig       `toml:"watch"`
}

type SourceConfig struct {
	// Patterns are glob patterns or directories; "**" matches any depth.
	Patterns    []string                `toml:"patterns"`
	ReadWorkers int                     `toml:"read_workers"`
	Normalize   source.NormalizeOptions `toml:"normalize"`
}

type FingerprintConfig struct {
	Backend string             `toml:"backend"`
	Prefix  string             `toml:"prefix"`
	Hash    core.HashAlgorithm `toml:"hash"`

	// Deferred records fingerprints only after a document's chunks have
	// all been committed.
	Deferred bool `toml:"deferred"`
}

type CommitConfig struct {
	BatchSize int      `toml:"batch_size"`
	Pacing    Duration `toml:"pacing"`
}

type PipelineConfig struct {
	PoolSize      int `toml:"pool_size"`
	QueueCapacity int `toml:"queue_capacity"`
}

type StorageConfig struct {
	BadgerDir  string `toml:"badger_dir"`
	SQLitePath string `toml:"sqlite_path"`
}

type EmbeddingConfig struct {
	Host       string   `toml:"host"`
	Model      string   `toml:"model"`
	Token      string   `toml:"token"`
	MaxRetries int      `toml:"max_retries"`
	RetryDelay Duration `toml:"retry_delay"`
}

type WatchConfig struct {
	Debounce Duration `toml:"debounce"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Patterns:    []string{DefaultPattern},
			ReadWorkers: source.DefaultReadWorkers,
		},
		Splitter: splitter.DefaultConfig(),
		Fingerprints: FingerprintConfig{
			Backend: BackendBadger,
			Prefix:  ingestion.DefaultFingerprintPrefix,
			Hash:    core.HashMD5,
		},
		Commit: CommitConfig{
			BatchSize: ingestion.DefaultBatchSize,
			Pacing:    Duration(ingestion.DefaultPacing),
		},
		Pipeline: PipelineConfig{
			PoolSize:      ingestion.DefaultPoolSize,
			QueueCapacity: ingestion.DefaultQueueCapacity,
		},
		Storage: StorageConfig{
			BadgerDir:  filepath.Join(DefaultDataDir, "index"),
			SQLitePath: filepath.Join(DefaultDataDir, "fingerprints.db"),
		},
		Embedding: EmbeddingConfig{
			Host:       ai.DefaultHost,
			Model:      ai.DefaultModel,
			MaxRetries: ai.DefaultMaxRetries,
			RetryDelay: Duration(ai.DefaultRetryDelay),
		},
		Watch: WatchConfig{
			Debounce: Duration(source.DefaultDebounce),
		},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode applies TOML data on top of cfg. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// Encode renders cfg as TOML.
func Encode(cfg *Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if len(c.Source.Patterns) == 0 {
		return fmt.Errorf("%w: source.patterns is empty", ErrInvalidConfig)
	}
	if c.Source.ReadWorkers < 1 {
		return fmt.Errorf("%w: source.read_workers must be at least 1", ErrInvalidConfig)
	}
	if err := c.Splitter.Validate(); err != nil {
		return fmt.Errorf("%w: splitter: %w", ErrInvalidConfig, err)
	}

	switch c.Fingerprints.Backend {
	case BackendBadger:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("%w: storage.sqlite_path is required for the sqlite backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown fingerprint backend %q", ErrInvalidConfig, c.Fingerprints.Backend)
	}
	if _, err := core.NewHasher(c.Fingerprints.Hash); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Commit.BatchSize < 1 {
		return fmt.Errorf("%w: commit.batch_size must be at least 1", ErrInvalidConfig)
	}
	if c.Commit.Pacing < 0 {
		return fmt.Errorf("%w: commit.pacing must not be negative", ErrInvalidConfig)
	}
	if c.Pipeline.PoolSize < 1 {
		return fmt.Errorf("%w: pipeline.pool_size must be at least 1", ErrInvalidConfig)
	}
	if c.Pipeline.QueueCapacity < 0 {
		return fmt.Errorf("%w: pipeline.queue_capacity must not be negative", ErrInvalidConfig)
	}
	if c.Storage.BadgerDir == "" {
		return fmt.Errorf("%w: storage.badger_dir is required", ErrInvalidConfig)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: embedding: %w", ErrInvalidConfig, err)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("%w: watch.debounce must not be negative", ErrInvalidConfig)
	}
	return nil
}

// AIConfig converts the embedding section for ai/openai.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithToken(c.Embedding.Token),
		ai.WithRetry(c.Embedding.MaxRetries, c.Embedding.RetryDelay.Std()),
	)
}
