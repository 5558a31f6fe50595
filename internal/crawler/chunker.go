package crawler

import "strings"

const (
	// defaultChunkSize is the sliding window length in bytes.
	defaultChunkSize = 1800
	// defaultChunkOverlap is how far consecutive windows overlap.
	defaultChunkOverlap = 200
	// minChunkLen drops windows that trim down to noise.
	minChunkLen = 50
)

// ChunkText splits text into overlapping fixed-size windows. Windows are
// trimmed, and any that end up at or below minChunkLen are dropped while
// the index keeps advancing, so chunk order follows document order.
func ChunkText(text string, chunkSize, overlap int) []string {
	var chunks []string
	if text == "" {
		return chunks
	}

	i := 0
	for i < len(text) {
		end := i + chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunk := strings.TrimSpace(text[i:end])
		if len(chunk) > minChunkLen {
			chunks = append(chunks, chunk)
		}
		if end == len(text) {
			break
		}
		i = end - overlap
		if i < 0 {
			i = 0
		}
	}
	return chunks
}

// Chunk splits text with the default window and overlap.
func Chunk(text string) []string {
	return ChunkText(text, defaultChunkSize, defaultChunkOverlap)
}
