// Package reembed regenerates the vectors of every chunk already in the
// index, typically after switching embedding models.
//
// Chunks are read in id order in batches, embedded with retry and
// normalized, and written back in place. Chunk ids, text and metadata are
// preserved, and document fingerprints are not touched.
package reembed
