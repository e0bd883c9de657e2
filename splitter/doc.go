// Package splitter partitions document text into bounded chunks using the
// langchaingo text splitters (recursive character, markdown, or token based).
//
// On top of the raw split it merges undersized spans, drops spans too short
// to be worth embedding, and caps the number of chunks per document.
package splitter
