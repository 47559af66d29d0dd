// ABOUTME: Collaborator interfaces consumed by the retrieval pipeline
// ABOUTME: Providers, stores, first-stage searchers, and text extractors plug in here
package core

import (
	"context"
	"io"

	"github.com/harper/docrag/internal/models"
)

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) (models.Vector, error)
	Name() string
}

// DocumentStore persists and scans document records
type DocumentStore interface {
	Insert(ctx context.Context, rec *models.DocumentRecord) (int64, error)
	ScanAll(ctx context.Context) ([]models.DocumentRecord, error)
	Count(ctx context.Context) (int, error)
}

// SimilaritySearcher returns ranked results for a query, best first
type SimilaritySearcher interface {
	SearchSimilar(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

// TextExtractor pulls plain text out of a PDF
type TextExtractor interface {
	ExtractPDF(r io.Reader) (string, error)
}
