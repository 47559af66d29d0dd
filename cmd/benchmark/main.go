// ABOUTME: Command-line runner for retrieval quality benchmarks
// ABOUTME: Indexes each scenario with the configured embedder and writes JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/harper/docrag/benchmarks/retrieval"
	"github.com/harper/docrag/internal/app"
	"github.com/harper/docrag/internal/config"
	"github.com/harper/docrag/internal/logging"
	"github.com/harper/docrag/internal/storage/sqlite"
)

func main() {
	scenarioID := flag.String("scenario", "", "Run one scenario (api, guide, noanswer). If empty, runs all.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	configPath := flag.String("config", "", "Path to a YAML config file")
	limit := flag.Int("limit", 5, "Results per query")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	scenarios := retrieval.AllScenarios()
	if *scenarioID != "" {
		s, ok := retrieval.ScenarioByID(*scenarioID)
		if !ok {
			logger.Fatal("unknown scenario", "id", *scenarioID)
		}
		scenarios = []retrieval.Scenario{s}
	}

	// Each scenario gets its own in-memory store behind the configured embedder
	open := func(ctx context.Context) (*retrieval.Pipeline, error) {
		db, err := sqlite.OpenInMemory()
		if err != nil {
			return nil, err
		}
		a, err := app.NewWithStore(ctx, cfg, sqlite.NewDocumentStore(db), logger)
		if err != nil {
			return nil, err
		}
		return &retrieval.Pipeline{Indexer: a.Indexer, Retriever: a.Retriever, Close: a.Close}, nil
	}

	fmt.Println("========================================")
	fmt.Println("docrag retrieval benchmarks")
	fmt.Println("========================================")

	runner := retrieval.NewRunner(open, *limit, logger)
	results := runner.RunAll(context.Background(), scenarios)

	passed, failed := 0, 0
	for _, r := range results {
		fmt.Printf("\n%s: %s\n", r.ScenarioID, r.ScenarioName)
		fmt.Printf("  Chunks indexed: %d (failed %d)\n", r.ChunksIndexed, r.ChunksFailed)
		fmt.Printf("  Threshold:      %.2f\n", r.Threshold)
		fmt.Printf("  Source recall:  %.2f\n", r.SourceRecall)
		fmt.Printf("  Context recall: %.2f\n", r.ContextRecall)
		fmt.Printf("  Precision:      %.2f\n", r.Precision)
		fmt.Printf("  MRR:            %.2f\n", r.MRR)
		fmt.Printf("  Status:         %s\n", r.Status)
		if r.ErrorMessage != "" {
			fmt.Printf("  Error:          %s\n", r.ErrorMessage)
		}

		if r.Status == "PASS" {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total: %d  Passed: %d  Failed: %d\n", len(results), passed, failed)
	fmt.Println("========================================")

	if err := retrieval.ExportResults(results, *outputPath); err != nil {
		logger.Fatal("failed to export results", "error", err)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
