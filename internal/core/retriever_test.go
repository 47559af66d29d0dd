// ABOUTME: Tests for the query-side Retriever
// ABOUTME: Covers save-then-search, empty stores, thresholds, and compare mode
package core

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/harper/docrag/internal/models"
)

func newPipeline(t *testing.T) (*Retriever, *Indexer, *memStore, *letterEmbedder) {
	t.Helper()
	emb := &letterEmbedder{}
	store := &memStore{}
	r := NewRetriever(emb, store, DefaultSearchPolicy(), NewCitationFormatter("en"), nil)
	ix := NewIndexer(emb, store, DefaultIndexParams(), nil)
	return r, ix, store, emb
}

func ptr(f float64) *float64 { return &f }

func TestRetriever_SaveThenSearch(t *testing.T) {
	ctx := context.Background()
	r, ix, _, _ := newPipeline(t)

	saved, err := ix.SaveDocument(ctx, SaveRequest{Content: "The quick brown fox"})
	if err != nil {
		t.Fatalf("SaveDocument() error = %v", err)
	}
	if saved.Dimensions != 26 {
		t.Errorf("Dimensions = %d, want 26", saved.Dimensions)
	}

	if _, err := ix.SaveDocument(ctx, SaveRequest{Content: "zzzz zzzz"}); err != nil {
		t.Fatalf("SaveDocument() error = %v", err)
	}

	results, err := r.SearchSimilar(ctx, "quick fox", 5)
	if err != nil {
		t.Fatalf("SearchSimilar() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Record.ID != saved.ID {
		t.Errorf("top result ID = %d, want %d", results[0].Record.ID, saved.ID)
	}
	if results[0].Similarity <= results[1].Similarity {
		t.Errorf("results not descending: %v then %v", results[0].Similarity, results[1].Similarity)
	}
	if results[0].Record.SourceFile != models.DefaultSourceFile {
		t.Errorf("SourceFile = %q, want %q", results[0].Record.SourceFile, models.DefaultSourceFile)
	}
}

func TestRetriever_DuplicateContent(t *testing.T) {
	ctx := context.Background()
	r, ix, _, _ := newPipeline(t)

	a, err := ix.SaveDocument(ctx, SaveRequest{Content: "same words"})
	if err != nil {
		t.Fatalf("SaveDocument() error = %v", err)
	}
	b, err := ix.SaveDocument(ctx, SaveRequest{Content: "same words"})
	if err != nil {
		t.Fatalf("SaveDocument() error = %v", err)
	}
	if a.ID == b.ID {
		t.Errorf("duplicate content shares ID %d", a.ID)
	}

	results, err := r.SearchSimilar(ctx, "same words", 5)
	if err != nil {
		t.Fatalf("SearchSimilar() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if math.Abs(results[0].Similarity-results[1].Similarity) > 1e-12 {
		t.Errorf("identical content scored %v and %v", results[0].Similarity, results[1].Similarity)
	}
	if results[0].Record.ID != a.ID {
		t.Errorf("tie should go to the lower id %d, got %d", a.ID, results[0].Record.ID)
	}
}

func TestRetriever_SearchEmptyStore(t *testing.T) {
	r, _, _, _ := newPipeline(t)

	results, err := r.SearchSimilar(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("SearchSimilar() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from an empty store", len(results))
	}

	resp, err := r.SemanticSearch(context.Background(), SemanticRequest{Query: "anything", Threshold: ptr(0.6)})
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("got %d semantic results from an empty store", len(resp.Results))
	}
	if resp.Threshold != 0.6 {
		t.Errorf("Threshold = %v, want 0.6", resp.Threshold)
	}
	if resp.Source != SourceLocal {
		t.Errorf("Source = %q, want %q", resp.Source, SourceLocal)
	}
}

func TestRetriever_ValidationHasNoSideEffects(t *testing.T) {
	r, ix, store, emb := newPipeline(t)
	ctx := context.Background()

	if _, err := r.SearchSimilar(ctx, "   ", 5); !errors.Is(err, ErrValidation) {
		t.Errorf("SearchSimilar(blank) error = %v", err)
	}
	if _, err := r.SemanticSearch(ctx, SemanticRequest{}); !errors.Is(err, ErrValidation) {
		t.Errorf("SemanticSearch(empty) error = %v", err)
	}
	if _, err := r.Embed(ctx, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("Embed(empty) error = %v", err)
	}
	if _, err := ix.SaveDocument(ctx, SaveRequest{Content: ""}); !errors.Is(err, ErrValidation) {
		t.Errorf("SaveDocument(empty) error = %v", err)
	}

	if n := emb.calls.Load(); n != 0 {
		t.Errorf("embedder called %d times", n)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("store holds %d records", n)
	}
}

func TestRetriever_EmbeddingFailure(t *testing.T) {
	emb := &letterEmbedder{failOn: func(string) bool { return true }}
	store := &memStore{}
	r := NewRetriever(emb, store, DefaultSearchPolicy(), nil, nil)
	ix := NewIndexer(emb, store, IndexParams{}, nil)

	if _, err := r.SearchSimilar(context.Background(), "query", 5); !errors.Is(err, ErrEmbedding) {
		t.Errorf("SearchSimilar() error = %v, want ErrEmbedding", err)
	}
	if _, err := ix.SaveDocument(context.Background(), SaveRequest{Content: "doc"}); !errors.Is(err, ErrEmbedding) {
		t.Errorf("SaveDocument() error = %v, want ErrEmbedding", err)
	}
	if n, _ := store.Count(context.Background()); n != 0 {
		t.Errorf("failed embedding stored %d records", n)
	}
}

func TestRetriever_StorageFailure(t *testing.T) {
	store := &memStore{scanErr: errors.New("disk gone")}
	r := NewRetriever(&letterEmbedder{}, store, DefaultSearchPolicy(), nil, nil)

	if _, err := r.SearchSimilar(context.Background(), "query", 5); !errors.Is(err, ErrStorage) {
		t.Errorf("SearchSimilar() error = %v, want ErrStorage", err)
	}
}

func TestRetriever_SkipsMismatchedRecords(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	if _, err := store.Insert(ctx, &models.DocumentRecord{Content: "short", Embedding: models.Vector{1, 2, 3}}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	r := NewRetriever(&letterEmbedder{}, store, DefaultSearchPolicy(), nil, nil)
	ix := NewIndexer(&letterEmbedder{}, store, IndexParams{}, nil)
	if _, err := ix.SaveDocument(ctx, SaveRequest{Content: "abc"}); err != nil {
		t.Fatalf("SaveDocument() error = %v", err)
	}

	results, err := r.SearchSimilar(ctx, "abc", 5)
	if err != nil {
		t.Fatalf("SearchSimilar() error = %v", err)
	}
	if len(results) != 1 || results[0].Record.Content != "abc" {
		t.Errorf("results = %+v, want only the matching-dimension record", results)
	}
}

func TestRetriever_SemanticThresholdAndCitations(t *testing.T) {
	page := 4
	first := &stubSearcher{results: []models.SearchResult{
		{Record: models.DocumentRecord{ID: 1, SourceFile: "guide.pdf", PageNumber: &page, ChunkIndex: 1, TotalChunks: 3}, Similarity: 0.91},
		{Record: models.DocumentRecord{ID: 2, SourceFile: "guide.pdf", ChunkIndex: 2, TotalChunks: 3}, Similarity: 0.72},
		{Record: models.DocumentRecord{ID: 3, SourceFile: "notes.md", TotalChunks: 1}, Similarity: 0.65},
		{Record: models.DocumentRecord{ID: 4, SourceFile: "notes.md", TotalChunks: 1}, Similarity: 0.40},
	}}
	r := NewRetriever(&letterEmbedder{}, &memStore{}, DefaultSearchPolicy(), NewCitationFormatter("en"), nil,
		WithFirstStage(first, "remote_mcp_server"))

	resp, err := r.SemanticSearch(context.Background(), SemanticRequest{Query: "guide", Limit: 3, Threshold: ptr(0.6)})
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}

	if first.lastLimit != 6 {
		t.Errorf("first stage limit = %d, want limit x overfetch = 6", first.lastLimit)
	}
	if resp.Source != "remote_mcp_server" {
		t.Errorf("Source = %q", resp.Source)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(resp.Results))
	}
	wantCitations := []string{"[guide.pdf, p. 4, chunk 2/3]", "[guide.pdf, chunk 3/3]", "[notes.md]"}
	for i, want := range wantCitations {
		if resp.Results[i].Citation != want {
			t.Errorf("Results[%d].Citation = %q, want %q", i, resp.Results[i].Citation, want)
		}
	}
	if info := resp.Results[0].CitationInfo; info == nil || info.Formatted != resp.Results[0].Citation {
		t.Errorf("CitationInfo = %+v, want Formatted %q", info, resp.Results[0].Citation)
	}
	if want := []string{"guide.pdf (2 chunks)", "notes.md (1 chunk)"}; !slices.Equal(resp.SourcesSummary, want) {
		t.Errorf("SourcesSummary = %v, want %v", resp.SourcesSummary, want)
	}
	if resp.Unfiltered != nil {
		t.Errorf("Unfiltered = %v outside compare mode", resp.Unfiltered)
	}
}

func TestRetriever_SemanticClampsThreshold(t *testing.T) {
	first := &stubSearcher{results: []models.SearchResult{
		{Record: models.DocumentRecord{ID: 1, SourceFile: "a"}, Similarity: 0.97},
		{Record: models.DocumentRecord{ID: 2, SourceFile: "a"}, Similarity: 0.35},
		{Record: models.DocumentRecord{ID: 3, SourceFile: "a"}, Similarity: 0.2},
	}}
	r := NewRetriever(&letterEmbedder{}, &memStore{}, DefaultSearchPolicy(), nil, nil, WithFirstStage(first, "stub"))

	tests := []struct {
		name          string
		threshold     *float64
		wantThreshold float64
		wantResults   int
	}{
		{"above maximum", ptr(1.5), 0.95, 1},
		{"below minimum", ptr(0.0), 0.3, 2},
		{"default", nil, 0.6, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := r.SemanticSearch(context.Background(), SemanticRequest{Query: "q", Limit: 5, Threshold: tt.threshold})
			if err != nil {
				t.Fatalf("SemanticSearch() error = %v", err)
			}
			if resp.Threshold != tt.wantThreshold {
				t.Errorf("Threshold = %v, want %v", resp.Threshold, tt.wantThreshold)
			}
			if len(resp.Results) != tt.wantResults {
				t.Errorf("got %d results, want %d", len(resp.Results), tt.wantResults)
			}
		})
	}

	if _, err := r.SemanticSearch(context.Background(), SemanticRequest{Query: "q"}); err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}
	if first.lastLimit != 6 {
		t.Errorf("default semantic limit should request 6 candidates, got %d", first.lastLimit)
	}
}

func TestRetriever_SemanticRejectsNonFiniteThreshold(t *testing.T) {
	first := &stubSearcher{results: []models.SearchResult{
		{Record: models.DocumentRecord{ID: 1, SourceFile: "a"}, Similarity: 0.9},
	}}
	r := NewRetriever(&letterEmbedder{}, &memStore{}, DefaultSearchPolicy(), nil, nil, WithFirstStage(first, "stub"))

	for _, th := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := r.SemanticSearch(context.Background(), SemanticRequest{Query: "q", Threshold: ptr(th)})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("threshold %v: error = %v, want ErrValidation", th, err)
		}
	}
	if first.lastLimit != 0 {
		t.Errorf("first stage queried with limit %d for a rejected threshold", first.lastLimit)
	}
}

func TestRetriever_CompareMode(t *testing.T) {
	first := &stubSearcher{results: []models.SearchResult{
		{Record: models.DocumentRecord{ID: 1, SourceFile: "a"}, Similarity: 0.9},
		{Record: models.DocumentRecord{ID: 2, SourceFile: "a"}, Similarity: 0.5},
		{Record: models.DocumentRecord{ID: 3, SourceFile: "b"}, Similarity: 0.45},
		{Record: models.DocumentRecord{ID: 4, SourceFile: "b"}, Similarity: 0.1},
	}}
	r := NewRetriever(&letterEmbedder{}, &memStore{}, DefaultSearchPolicy(), nil, nil, WithFirstStage(first, "stub"))

	resp, err := r.SemanticSearch(context.Background(), SemanticRequest{Query: "q", Limit: 3, Threshold: ptr(0.6), CompareMode: true})
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}
	if !resp.CompareMode {
		t.Error("CompareMode = false")
	}
	if len(resp.Unfiltered) != 3 {
		t.Fatalf("got %d unfiltered results, want 3", len(resp.Unfiltered))
	}
	if resp.Unfiltered[2].Record.ID != 3 {
		t.Errorf("Unfiltered[2].ID = %d, want 3", resp.Unfiltered[2].Record.ID)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("got %d filtered results, want 1", len(resp.Results))
	}

	// Entries that passed the threshold share the filtered citation
	if got := resp.Unfiltered[0].Citation; got != "[a]" || got != resp.Results[0].Citation {
		t.Errorf("Unfiltered[0].Citation = %q, want %q", got, resp.Results[0].Citation)
	}
	if resp.Unfiltered[0].CitationInfo == nil {
		t.Error("Unfiltered[0].CitationInfo is nil")
	}
	for _, u := range resp.Unfiltered[1:] {
		if u.Citation != "" || u.CitationInfo != nil {
			t.Errorf("below-threshold id %d carries citation %q", u.Record.ID, u.Citation)
		}
	}
	if want := []string{"a (1 chunk)"}; !slices.Equal(resp.SourcesSummary, want) {
		t.Errorf("SourcesSummary = %v, want %v", resp.SourcesSummary, want)
	}
}

func TestRetriever_FirstStageError(t *testing.T) {
	first := &stubSearcher{err: errors.New("connection refused")}
	r := NewRetriever(&letterEmbedder{}, &memStore{}, DefaultSearchPolicy(), nil, nil, WithFirstStage(first, "remote_mcp_server"))

	_, err := r.SemanticSearch(context.Background(), SemanticRequest{Query: "q"})
	if err == nil {
		t.Fatal("SemanticSearch() succeeded despite a first-stage error")
	}
	for _, want := range []string{"remote_mcp_server", "connection refused"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}

func TestRetriever_LocalSemanticSearch(t *testing.T) {
	ctx := context.Background()
	r, ix, _, _ := newPipeline(t)

	if _, err := ix.SaveDocument(ctx, SaveRequest{Content: "abc abc", SourceFile: "letters.txt", SourceType: models.SourceText}); err != nil {
		t.Fatalf("SaveDocument() error = %v", err)
	}
	if _, err := ix.SaveDocument(ctx, SaveRequest{Content: "xyz xyz", SourceFile: "other.txt", SourceType: models.SourceText}); err != nil {
		t.Fatalf("SaveDocument() error = %v", err)
	}

	resp, err := r.SemanticSearch(ctx, SemanticRequest{Query: "abc", Threshold: ptr(0.6)})
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Citation != "[letters.txt]" {
		t.Errorf("results = %+v, want one cited [letters.txt]", resp.Results)
	}

	n, err := r.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}
