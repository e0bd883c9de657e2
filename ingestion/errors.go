package ingestion

import "errors"

var (
	// ErrAlreadyRunning is returned by Start when a run is in progress.
	ErrAlreadyRunning = errors.New("indexing already running")

	// ErrPipelineStage wraps a failure that aborted a run.
	ErrPipelineStage = errors.New("pipeline stage failed")

	// ErrEnumeratorRequired is returned when an enumerator is not provided.
	ErrEnumeratorRequired = errors.New("enumerator required")

	// ErrDetectorRequired is returned when a change detector is not provided.
	ErrDetectorRequired = errors.New("change detector required")

	// ErrSplitterRequired is returned when a splitter is not provided.
	ErrSplitterRequired = errors.New("splitter required")

	// ErrVectorIndexRequired is returned when a vector index is not provided.
	ErrVectorIndexRequired = errors.New("vector index required")

	// ErrFingerprintStoreRequired is returned when a fingerprint store is not provided.
	ErrFingerprintStoreRequired = errors.New("fingerprint store required")
)
