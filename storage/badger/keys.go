package badger

// Key prefixes for different data types
const (
	fingerprintPrefix = "fprint:"
	chunkRecordPrefix = "chunk:"
)

// makeFingerprintKey namespaces a caller-qualified fingerprint key
// (e.g. "docmeta:doc-guide.md") away from chunk records.
func makeFingerprintKey(key string) []byte {
	return []byte(fingerprintPrefix + key)
}

// makeChunkKey generates a key for a chunk record by its stable ID.
func makeChunkKey(id string) []byte {
	return []byte(chunkRecordPrefix + id)
}
