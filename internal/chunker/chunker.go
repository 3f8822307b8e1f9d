// Package chunker splits document text into fixed-size, overlapping chunks.
package chunker

import (
	"fmt"

	"ragdocs/internal/domain"
)

// Default chunk geometry, in characters.
const (
	DefaultSize    = 500
	DefaultOverlap = 50
)

// Chunker splits text into fixed-size windows that overlap by a constant
// number of characters. Boundaries are rune offsets, never semantic.
type Chunker struct {
	size    int
	overlap int
}

// New returns a Chunker. It fails with domain.ErrInvalidConfig unless
// 0 <= overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk size %d, overlap %d (need 0 <= overlap < size)",
			domain.ErrInvalidConfig, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the maximum chunk length in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of characters shared by consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns the chunks of text in order. Empty text yields no chunks.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	step := c.size - c.overlap
	chunks := make([]string, 0, (n+step-1)/step)
	for start := 0; start < n; start += step {
		end := start + c.size
		if end > n {
			end = n
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Chunks splits a document's text and attaches its path and source URL.
func (c *Chunker) Chunks(path, sourceURL, text string) []domain.Chunk {
	parts := c.Split(text)
	out := make([]domain.Chunk, len(parts))
	for i, p := range parts {
		out[i] = domain.Chunk{
			Path:       path,
			ChunkIndex: i,
			Content:    p,
			SourceURL:  sourceURL,
		}
	}
	return out
}
