// Package chunker splits extracted document text into overlapping
// fixed-size windows. The overlap keeps concepts that span a chunk
// boundary intact in at least one chunk, which is what makes them
// retrievable at query time.
package chunker

import (
	"fmt"
)

// Default window parameters used by the ingestion pipeline when the
// configuration does not override them.
const (
	// DefaultChunkSize is the maximum number of characters per chunk.
	DefaultChunkSize = 1500
	// DefaultOverlap is the number of characters shared between consecutive chunks.
	DefaultOverlap = 200
)

// Split cuts text into ordered, overlapping windows of at most chunkSize
// characters. Each window after the first starts overlap characters before
// the end of the previous one (clamped at offset 0), so every character of
// the input appears in at least one chunk and the final chunk ends exactly at
// the end of text. Boundaries are rune-aligned, so a window never cuts a
// multibyte UTF-8 sequence in half.
//
// Empty text yields a nil slice. Text shorter than chunkSize yields exactly
// one chunk equal to the whole text.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunker: chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("chunker: overlap must satisfy 0 <= overlap < chunk size, got %d (size %d)", overlap, chunkSize)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}

	return chunks, nil
}

// Count returns the number of chunks Split produces for a text of n
// characters without materialising them: ceil((n - overlap) / (chunkSize -
// overlap)) for n > 0, and 0 for empty text.
func Count(n, chunkSize, overlap int) int {
	if n <= 0 {
		return 0
	}
	if n <= chunkSize {
		return 1
	}
	step := chunkSize - overlap
	return (n - overlap + step - 1) / step
}
