// Package source discovers and reads the documents that feed the indexing
// pipeline.
//
// An Enumerator resolves a set of patterns (directories, globs, or globs
// containing "**") to files, reads them concurrently, and returns one
// core.SourceDocument per usable file in path order. Files that cannot be
// read, are empty, or collide with an earlier document id are skipped and
// logged. Only a failure to scan a pattern is reported as an error.
//
// The package also provides an optional content Normalizer and a Watcher
// that turns filesystem events into debounced reindex triggers.
package source
