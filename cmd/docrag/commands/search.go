// ABOUTME: CLI command to search indexed documents by meaning
// ABOUTME: Runs threshold-filtered semantic search, or raw similarity ranking with --raw
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/docrag/internal/core"
	"github.com/harper/docrag/internal/models"
)

var (
	searchLimit     int
	searchThreshold float64
	searchCompare   bool
	searchRaw       bool
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search documents by meaning",
		Long: `Search documents using semantic similarity.

The query is embedded and compared with every stored chunk by cosine
similarity. Results below the similarity threshold are dropped and the
rest are cited with their source file, page, and chunk position.
The threshold is clamped to the configured range (0.3 to 0.95).

Use --raw for the plain top-k ranking without a threshold, and
--compare to see the unfiltered results next to the filtered ones.

Examples:
  docrag search "how do I authenticate"
  docrag search --limit 10 --threshold 0.7 "rate limits"
  docrag search --compare "pagination"
  docrag search --format json "error codes"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", 5, "Maximum results to return")
	cmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "Minimum similarity (default from config, 0.6)")
	cmd.Flags().BoolVar(&searchCompare, "compare", false, "Also show results without the threshold")
	cmd.Flags().BoolVar(&searchRaw, "raw", false, "Rank without a threshold or citations")
	cmd.MarkFlagsMutuallyExclusive("raw", "compare")
	cmd.MarkFlagsMutuallyExclusive("raw", "threshold")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}

	if cmd.Flags().Changed("threshold") {
		if err := core.ValidateThreshold(searchThreshold); err != nil {
			return err
		}
	}

	query := args[0]

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()

	if searchRaw {
		results, err := a.Retriever.SearchSimilar(cmd.Context(), query, searchLimit)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}
		return printResults(out, query, results, nil)
	}

	req := core.SemanticRequest{
		Query:       query,
		Limit:       searchLimit,
		CompareMode: searchCompare,
	}
	if cmd.Flags().Changed("threshold") {
		t := searchThreshold
		req.Threshold = &t
	}

	resp, err := a.Retriever.SemanticSearch(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if wantJSON() {
		return printSemanticJSON(out, resp)
	}

	if resp.CompareMode {
		fmt.Fprintf(out, "Without threshold (%d):\n", len(resp.Unfiltered))
		if err := printResults(out, query, resp.Unfiltered, nil); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nAt threshold %.2f (%d):\n", resp.Threshold, len(resp.Results))
	}
	if err := printResults(out, query, resp.Results, resp); err != nil {
		return err
	}
	if !quiet && len(resp.SourcesSummary) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for _, s := range resp.SourcesSummary {
			fmt.Fprintf(out, "  %s\n", s)
		}
	}
	return nil
}

// printResults writes a result table; resp adds threshold context when set
func printResults(w io.Writer, query string, results []models.SearchResult, resp *core.SemanticResponse) error {
	if len(results) == 0 {
		if !quiet {
			if resp != nil {
				fmt.Fprintf(w, "No documents at or above %.2f for query: %s\n", resp.Threshold, query)
			} else {
				fmt.Fprintf(w, "No documents found for query: %s\n", query)
			}
		}
		return nil
	}

	if wantJSON() {
		data, err := json.MarshalIndent(models.NewDocumentViews(results), "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(w, "%s\n", data)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "SCORE\tSOURCE\tPREVIEW\n")
	fmt.Fprintf(tw, "-----\t------\t-------\n")
	for _, r := range results {
		source := r.Citation
		if source == "" {
			source = fmt.Sprintf("%s #%d", r.Record.SourceFile, r.Record.ChunkIndex)
		}
		fmt.Fprintf(tw, "%.3f\t%s\t%s\n",
			r.Similarity,
			truncate(source, 40),
			truncate(singleLine(r.Record.Content), 60))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !quiet && resp != nil {
		fmt.Fprintf(w, "\nFound %d result(s) from %s\n", len(results), resp.Source)
	}
	return nil
}

func printSemanticJSON(w io.Writer, resp *core.SemanticResponse) error {
	payload := map[string]interface{}{
		"threshold":       resp.Threshold,
		"count":           len(resp.Results),
		"documents":       models.NewDocumentViews(resp.Results),
		"sources_summary": resp.SourcesSummary,
		"source":          resp.Source,
	}
	if resp.CompareMode {
		payload["unfiltered"] = models.NewDocumentViews(resp.Unfiltered)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(w, "%s\n", data)
	return nil
}
