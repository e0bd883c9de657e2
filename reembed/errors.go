package reembed

import "errors"

var (
	// ErrRepositoryRequired is returned when no chunk repository is supplied.
	ErrRepositoryRequired = errors.New("chunk repository is required")

	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidConfig is returned for a batch size or retry count below 1.
	ErrInvalidConfig = errors.New("invalid reembed config")
)
