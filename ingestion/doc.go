// Package ingestion implements the incremental indexing pipeline.
//
// A run enumerates source documents, keeps those whose content fingerprint
// changed since the last run, splits them into chunks, gives each chunk a
// stable id derived from its document and position, and commits the chunks
// to a vector index in paced batches:
//
//	enumerate → detect → normalize → split → assign → commit
//
// Each step is a plain function in stages.go; Pipeline composes them and
// runs them on an ants worker pool. Pipeline.Start never blocks on the run.
// At most one run is active at a time: a trigger that arrives while a run is
// active is rejected with ErrAlreadyRunning, not queued.
//
// Failures are handled per step. Enumeration and split failures abort the
// run with ErrPipelineStage. A fingerprint lookup failure marks the document
// as changed. Chunks that cannot be given an id are dropped, and a failed
// batch is skipped without stopping later batches. Progress is exposed as
// Status snapshots that readers never mutate.
package ingestion
