// ABOUTME: Document record, search result, and citation types
// ABOUTME: A record is one stored chunk with its embedding and provenance
package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// SourceType tags where a record's content came from
type SourceType string

const (
	SourcePDF      SourceType = "pdf"
	SourceText     SourceType = "txt"
	SourceMarkdown SourceType = "markdown"
	SourceManual   SourceType = "manual"
)

// Provenance defaults
const (
	DefaultSourceFile = "manual_entry"
	UnknownSourceFile = "unknown"
	EmptyMetadata     = "{}"
)

// ParseSourceType validates a source type name; empty means manual
func ParseSourceType(s string) (SourceType, error) {
	switch st := SourceType(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return SourceManual, nil
	case SourcePDF, SourceText, SourceMarkdown, SourceManual:
		return st, nil
	default:
		return "", fmt.Errorf("unknown source type %q", s)
	}
}

// SourceTypeForFilename infers the type from the file extension
func SourceTypeForFilename(name string) SourceType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return SourcePDF
	case ".md", ".markdown":
		return SourceMarkdown
	default:
		return SourceText
	}
}

// DocumentRecord is a stored chunk with its embedding
type DocumentRecord struct {
	ID          int64      `json:"id"`
	Content     string     `json:"content"`
	Embedding   Vector     `json:"embedding,omitempty"`
	SourceFile  string     `json:"source_file"`
	SourceType  SourceType `json:"source_type"`
	ChunkIndex  int        `json:"chunk_index"`
	TotalChunks int        `json:"total_chunks"`
	PageNumber  *int       `json:"page_number"`
	Metadata    string     `json:"metadata"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ApplyDefaults fills unset provenance fields
func (d *DocumentRecord) ApplyDefaults() {
	if d.SourceFile == "" {
		d.SourceFile = DefaultSourceFile
	}
	if d.SourceType == "" {
		d.SourceType = SourceManual
	}
	if d.TotalChunks <= 0 {
		d.TotalChunks = 1
	}
	if d.Metadata == "" {
		d.Metadata = EmptyMetadata
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
}

// Page returns the page number or 0 when absent
func (d DocumentRecord) Page() int {
	if d.PageNumber == nil {
		return 0
	}
	return *d.PageNumber
}

// CitationInfo is the structured form of a citation
type CitationInfo struct {
	SourceFile  string     `json:"source_file"`
	SourceType  SourceType `json:"source_type"`
	ChunkIndex  int        `json:"chunk_index"`
	PageNumber  *int       `json:"page_number"`
	TotalChunks int        `json:"total_chunks"`
	Formatted   string     `json:"formatted"`
}

// SearchResult is a ranked record; citations are set after filtering
type SearchResult struct {
	Record       DocumentRecord
	Similarity   float64
	Citation     string
	CitationInfo *CitationInfo
}
