// ABOUTME: Stats command reports the document count and active configuration
// ABOUTME: Useful for checking which store, embedder, and search backend are wired
package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type statRow struct {
	key   string
	value interface{}
}

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show document count and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			count, err := a.Retriever.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("counting documents: %w", err)
			}

			cfg := a.Config
			rows := []statRow{
				{"documents", count},
				{"storage", cfg.Storage.Backend},
				{"embedder", a.Embedder.Name()},
				{"search_backend", cfg.Search.Backend},
				{"default_threshold", cfg.Search.DefaultThreshold},
				{"chunk_size", cfg.Indexing.ChunkSize},
				{"chunk_overlap", cfg.Indexing.ChunkOverlap},
				{"max_workers", cfg.Indexing.MaxWorkers},
			}
			if cfg.UsesRemote() {
				rows = append(rows, statRow{"remote_url", cfg.Remote.URL})
			}

			if wantJSON() {
				payload := make(map[string]interface{}, len(rows))
				for _, r := range rows {
					payload[r.key] = r.value
				}
				data, err := json.MarshalIndent(payload, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling JSON: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%v\n", r.key, r.value)
			}
			return w.Flush()
		},
	}
}
