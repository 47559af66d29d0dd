// ABOUTME: Runner for retrieval benchmarks; indexes each scenario into a fresh store
// ABOUTME: Runs semantic search per query, scores the results, and exports JSON

package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/harper/docrag/internal/core"
)

// Pipeline is an isolated indexer and retriever pair over one store
type Pipeline struct {
	Indexer   *core.Indexer
	Retriever *core.Retriever
	Close     func() error
}

// Opener builds a fresh pipeline for one scenario
type Opener func(ctx context.Context) (*Pipeline, error)

// Runner executes benchmark scenarios
type Runner struct {
	open   Opener
	limit  int
	logger *log.Logger
}

// NewRunner creates a runner; limit is the per-query result limit
func NewRunner(open Opener, limit int, logger *log.Logger) *Runner {
	if limit <= 0 {
		limit = 5
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{open: open, limit: limit, logger: logger}
}

// RunAll runs every scenario, continuing past failures
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) []ScenarioResult {
	results := make([]ScenarioResult, 0, len(scenarios))
	for _, s := range scenarios {
		res, err := r.Run(ctx, s)
		if err != nil {
			r.logger.Error("scenario failed", "scenario", s.ID, "error", err)
			res.ErrorMessage = err.Error()
			res.Status = "FAIL"
		}
		results = append(results, res)
	}
	return results
}

// Run indexes one scenario's documents into a fresh store and evaluates its queries
func (r *Runner) Run(ctx context.Context, s Scenario) (ScenarioResult, error) {
	res := ScenarioResult{
		ScenarioID:   s.ID,
		ScenarioName: s.Name,
	}

	p, err := r.open(ctx)
	if err != nil {
		return res, fmt.Errorf("opening pipeline: %w", err)
	}
	defer func() {
		if p.Close != nil {
			_ = p.Close()
		}
	}()

	logger := r.logger.With("scenario", s.ID)
	logger.Info("indexing", "documents", len(s.Documents))

	for _, doc := range s.Documents {
		job, err := p.Indexer.IndexText(ctx, core.IndexRequest{
			Text:     doc.Text,
			Filename: doc.Filename,
		})
		if err != nil {
			return res, fmt.Errorf("indexing %s: %w", doc.Filename, err)
		}
		res.ChunksIndexed += job.ChunksSaved
		res.ChunksFailed += job.ChunksFailed
	}

	for _, q := range s.Queries {
		resp, err := p.Retriever.SemanticSearch(ctx, core.SemanticRequest{
			Query:       q.Text,
			Limit:       r.limit,
			CompareMode: true,
		})
		if err != nil {
			return res, fmt.Errorf("query %q: %w", q.Text, err)
		}
		res.Threshold = resp.Threshold

		qr := Evaluate(q, resp.Results, len(resp.Unfiltered))
		logger.Debug("query evaluated",
			"query", q.Text,
			"returned", qr.Returned,
			"source_recall", qr.SourceRecall,
			"precision", qr.Precision)
		res.Queries = append(res.Queries, qr)
	}

	Aggregate(&res)
	logger.Info("scenario complete", "status", res.Status, "mrr", res.MRR)
	return res, nil
}

// ExportResults writes results as indented JSON
func ExportResults(results []ScenarioResult, path string) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
