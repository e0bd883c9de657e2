package splitter

import (
	"errors"
	"fmt"
)

// Kind selects the underlying text splitter.
type Kind string

const (
	KindRecursive Kind = "recursive"
	KindMarkdown  Kind = "markdown"
	KindToken     Kind = "token"
)

// Defaults carried over from the deployed configuration.
const (
	DefaultChunkSize      = 800
	DefaultMinChunkChars  = 350
	DefaultMinChunkLength = 5
	DefaultMaxChunkCount  = 10000
)

// charsPerToken approximates token-sized limits in characters.
const charsPerToken = 4

var ErrInvalidConfig = errors.New("invalid splitter config")

// Config bounds the chunks a Splitter produces.
type Config struct {
	// Kind is the splitting strategy. Default recursive.
	Kind Kind `toml:"kind"`

	// ChunkSize is the maximum chunk size, in characters for recursive and
	// markdown splitting and in tokens for token splitting.
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is how much consecutive chunks share, in the same unit.
	ChunkOverlap int `toml:"chunk_overlap"`

	// MinChunkChars is the size below which a span is merged with the span
	// that follows it, as long as the result still fits in ChunkSize.
	MinChunkChars int `toml:"min_chunk_chars"`

	// MinChunkLength drops chunks whose trimmed text is shorter than this.
	MinChunkLength int `toml:"min_chunk_length"`

	// MaxChunkCount caps the number of chunks produced per document.
	MaxChunkCount int `toml:"max_chunk_count"`
}

// DefaultConfig returns the default splitter configuration.
func DefaultConfig() Config {
	return Config{
		Kind:           KindRecursive,
		ChunkSize:      DefaultChunkSize,
		MinChunkChars:  DefaultMinChunkChars,
		MinChunkLength: DefaultMinChunkLength,
		MaxChunkCount:  DefaultMaxChunkCount,
	}
}

// Validate checks that the limits are usable.
func (c Config) Validate() error {
	switch c.Kind {
	case KindRecursive, KindMarkdown, KindToken:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidConfig, c.Kind)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", ErrInvalidConfig)
	}
	if c.MinChunkChars < 0 || c.MinChunkLength < 0 {
		return fmt.Errorf("%w: minimums must not be negative", ErrInvalidConfig)
	}
	if c.MaxChunkCount <= 0 {
		return fmt.Errorf("%w: max chunk count must be positive", ErrInvalidConfig)
	}
	return nil
}

// maxChars is the largest chunk, in characters, that coalescing may build.
func (c Config) maxChars() int {
	if c.Kind == KindToken {
		return c.ChunkSize * charsPerToken
	}
	return c.ChunkSize
}
