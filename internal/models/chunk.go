// ABOUTME: Chunk represents an overlapping window of source text for embedding
// ABOUTME: Carries its position and the total chunk count of its source
package models

// Chunk is one ordered piece of a larger source text
type Chunk struct {
	Content string `json:"content"`
	Index   int    `json:"index"`
	Total   int    `json:"total"`
}

// IsLast reports whether this is the final chunk of its source
func (c Chunk) IsLast() bool {
	return c.Index == c.Total-1
}
