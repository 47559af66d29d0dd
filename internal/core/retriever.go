// ABOUTME: Query-side orchestration: embed, scan, rank, filter, and cite
// ABOUTME: Semantic search runs a first stage (local or remote) then threshold filtering
package core

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/docrag/internal/models"
)

// SourceLocal names results ranked from the local store
const SourceLocal = "local"

// Retriever answers similarity queries against a store
type Retriever struct {
	embedder   Embedder
	store      DocumentStore
	policy     SearchPolicy
	citations  *CitationFormatter
	logger     *log.Logger
	firstStage SimilaritySearcher
	sourceName string
}

// RetrieverOption customizes a Retriever
type RetrieverOption func(*Retriever)

// WithFirstStage replaces the local first stage of semantic search
func WithFirstStage(s SimilaritySearcher, sourceName string) RetrieverOption {
	return func(r *Retriever) {
		r.firstStage = s
		r.sourceName = sourceName
	}
}

// NewRetriever creates a Retriever. A nil citations formatter uses English
// and a nil logger discards output.
func NewRetriever(emb Embedder, store DocumentStore, policy SearchPolicy, citations *CitationFormatter, logger *log.Logger, opts ...RetrieverOption) *Retriever {
	if citations == nil {
		citations = NewCitationFormatter("en")
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &Retriever{
		embedder:   emb,
		store:      store,
		policy:     policy,
		citations:  citations,
		logger:     logger,
		sourceName: SourceLocal,
	}
	r.firstStage = r
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the active search policy
func (r *Retriever) Policy() SearchPolicy {
	return r.policy
}

// Embed validates text and returns its embedding
func (r *Retriever) Embed(ctx context.Context, text string) (models.Vector, error) {
	if strings.TrimSpace(text) == "" {
		return nil, validationf("text is required")
	}
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, embeddingErr(err)
	}
	return vec, nil
}

// SearchSimilar ranks every stored record against query and returns the top
// limit (the policy default when limit is not positive).
func (r *Retriever) SearchSimilar(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, validationf("query is required")
	}
	if limit <= 0 {
		limit = r.policy.DefaultLimit
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, embeddingErr(err)
	}

	records, err := r.store.ScanAll(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	if len(records) == 0 {
		return []models.SearchResult{}, nil
	}

	out := Rank(vec, records)
	if out.Skipped > 0 {
		r.logger.Warn("skipped records with mismatched embedding dimension",
			"skipped", out.Skipped, "query_dimensions", len(vec), "scanned", len(records))
	}

	results := out.Results
	if len(results) > limit {
		results = results[:limit]
	}
	r.logger.Debug("similarity search", "scanned", len(records), "returned", len(results))
	return results, nil
}

// SemanticRequest asks for threshold-filtered results
type SemanticRequest struct {
	Query       string
	Limit       int
	Threshold   *float64
	CompareMode bool
}

// SemanticResponse carries filtered results and, in compare mode, the unfiltered head
type SemanticResponse struct {
	Threshold      float64
	Results        []models.SearchResult
	Unfiltered     []models.SearchResult
	SourcesSummary []string
	CompareMode    bool
	Source         string
}

// SemanticSearch fetches limit×overfetch candidates from the first stage,
// keeps those at or above the clamped threshold, and cites them.
func (r *Retriever) SemanticSearch(ctx context.Context, req SemanticRequest) (*SemanticResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, validationf("query is required")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = r.policy.SemanticLimit
	}
	threshold := r.policy.DefaultThreshold
	if req.Threshold != nil {
		if err := ValidateThreshold(*req.Threshold); err != nil {
			return nil, err
		}
		threshold = *req.Threshold
	}
	threshold = r.policy.ClampThreshold(threshold)

	candidateLimit := r.policy.CandidateLimit(limit)
	r.logger.Debug("semantic search", "source", r.sourceName, "threshold", threshold, "candidates", candidateLimit)

	candidates, err := r.firstStage.SearchSimilar(ctx, req.Query, candidateLimit)
	if err != nil {
		if r.sourceName == SourceLocal {
			return nil, err
		}
		return nil, fmt.Errorf("first-stage search via %s: %w", r.sourceName, err)
	}

	filtered := FilterByThreshold(candidates, limit, threshold)
	for i := range filtered {
		r.citations.Annotate(&filtered[i])
	}

	resp := &SemanticResponse{
		Threshold:      threshold,
		Results:        filtered,
		SourcesSummary: r.citations.SourcesSummary(filtered),
		CompareMode:    req.CompareMode,
		Source:         r.sourceName,
	}
	if req.CompareMode {
		// Head entries that passed the threshold carry the same citation
		head := candidates[:min(limit, len(candidates))]
		resp.Unfiltered = make([]models.SearchResult, len(head))
		for i, c := range head {
			if c.Similarity >= threshold {
				r.citations.Annotate(&c)
			}
			resp.Unfiltered[i] = c
		}
	}

	r.logger.Info("semantic search complete", "candidates", len(candidates), "kept", len(filtered), "threshold", threshold)
	return resp, nil
}

// Count returns the number of stored records
func (r *Retriever) Count(ctx context.Context) (int, error) {
	n, err := r.store.Count(ctx)
	if err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}
