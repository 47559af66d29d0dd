// ABOUTME: Chunker splits text into overlapping windows for embedding
// ABOUTME: Prefers to end a window at a sentence or paragraph break near its tail
package core

import (
	"strings"

	"github.com/harper/docrag/internal/models"
)

// boundaryWindow is how far back from a window's end a break is searched for
const boundaryWindow = 200

// Chunker handles overlapping text chunking. Positions count runes.
type Chunker struct{}

// NewChunker creates a new Chunker instance
func NewChunker() *Chunker {
	return &Chunker{}
}

type span struct {
	start, end int
}

// Chunk splits text into windows of at most chunkSize runes, each starting
// overlap runes before the previous one ended. Whitespace-only windows are
// dropped; the rest are trimmed and numbered.
func (c *Chunker) Chunk(text string, chunkSize, overlap int) ([]models.Chunk, error) {
	if chunkSize <= 0 {
		return nil, validationf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, validationf("chunk overlap must be in [0, %d), got %d", chunkSize, overlap)
	}

	runes := []rune(text)
	var contents []string
	for _, s := range chunkSpans(runes, chunkSize, overlap) {
		content := strings.TrimSpace(string(runes[s.start:s.end]))
		if content == "" {
			continue
		}
		contents = append(contents, content)
	}

	chunks := make([]models.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = models.Chunk{Content: content, Index: i, Total: len(contents)}
	}
	return chunks, nil
}

// chunkSpans returns the raw window bounds before trimming
func chunkSpans(runes []rune, size, overlap int) []span {
	n := len(runes)
	var spans []span

	start := 0
	for start < n {
		end := min(start+size, n)
		if end == n {
			spans = append(spans, span{start, end})
			break
		}

		cut := end
		if b := lastBreak(runes[start:end]); b >= 0 && b > (end-start)-boundaryWindow {
			// Keep the trim only if the next window still moves forward
			if trimmed := start + b + 1; trimmed-overlap > start {
				cut = trimmed
			}
		}
		spans = append(spans, span{start, cut})

		next := cut - overlap
		if next <= start {
			break
		}
		start = next
	}

	return spans
}

// lastBreak finds the last ". " or "\n\n" fully inside window, or -1
func lastBreak(window []rune) int {
	for i := len(window) - 2; i >= 0; i-- {
		switch {
		case window[i] == '.' && window[i+1] == ' ':
			return i
		case window[i] == '\n' && window[i+1] == '\n':
			return i
		}
	}
	return -1
}
