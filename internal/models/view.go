// ABOUTME: JSON view of a document as exchanged over MCP tools
// ABOUTME: Shared by the tool server and the remote client so both sides agree on shape
package models

import "time"

// DocumentView is the wire form of a search hit
type DocumentView struct {
	ID           int64         `json:"id"`
	Content      string        `json:"content"`
	Similarity   float64       `json:"similarity"`
	SourceFile   string        `json:"source_file"`
	SourceType   SourceType    `json:"source_type"`
	ChunkIndex   int           `json:"chunk_index"`
	PageNumber   *int          `json:"page_number"`
	TotalChunks  int           `json:"total_chunks"`
	CreatedAt    string        `json:"created_at"`
	Citation     string        `json:"citation,omitempty"`
	CitationInfo *CitationInfo `json:"citation_info,omitempty"`
}

// NewDocumentView converts a result for the wire, dropping the embedding
func NewDocumentView(r SearchResult) DocumentView {
	return DocumentView{
		ID:           r.Record.ID,
		Content:      r.Record.Content,
		Similarity:   r.Similarity,
		SourceFile:   r.Record.SourceFile,
		SourceType:   r.Record.SourceType,
		ChunkIndex:   r.Record.ChunkIndex,
		PageNumber:   r.Record.PageNumber,
		TotalChunks:  r.Record.TotalChunks,
		CreatedAt:    r.Record.CreatedAt.UTC().Format(time.RFC3339Nano),
		Citation:     r.Citation,
		CitationInfo: r.CitationInfo,
	}
}

// NewDocumentViews converts a result list
func NewDocumentViews(results []SearchResult) []DocumentView {
	views := make([]DocumentView, 0, len(results))
	for _, r := range results {
		views = append(views, NewDocumentView(r))
	}
	return views
}

// SearchResult converts a view back into a result without an embedding.
// An unparseable timestamp leaves CreatedAt zero.
func (v DocumentView) SearchResult() SearchResult {
	created, _ := time.Parse(time.RFC3339Nano, v.CreatedAt)
	return SearchResult{
		Record: DocumentRecord{
			ID:          v.ID,
			Content:     v.Content,
			SourceFile:  v.SourceFile,
			SourceType:  v.SourceType,
			ChunkIndex:  v.ChunkIndex,
			TotalChunks: v.TotalChunks,
			PageNumber:  v.PageNumber,
			CreatedAt:   created,
		},
		Similarity:   v.Similarity,
		Citation:     v.Citation,
		CitationInfo: v.CitationInfo,
	}
}
