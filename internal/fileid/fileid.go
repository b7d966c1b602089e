// Package fileid provides deterministic identifiers for notes and their chunks.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
)

const prefix = "note:"

// DocID returns a stable document ID for the given path.
// Same cleaned path always yields the same ID across reindex runs.
func DocID(path string) string {
	normalized := filepath.ToSlash(filepath.Clean(path))
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:16])
}

// ChunkID returns the ID of the chunk at ordinal within docID.
func ChunkID(docID string, ordinal int) string {
	return docID + "#" + strconv.Itoa(ordinal)
}
