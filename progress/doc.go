// Package progress renders a single-line progress readout for long running
// commands such as indexing and reembedding.
package progress
