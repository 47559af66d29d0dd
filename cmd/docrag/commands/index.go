// ABOUTME: CLI command to bulk index a text, markdown, or PDF file
// ABOUTME: Chunks the file and embeds chunks in parallel, reporting saved and failed counts
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harper/docrag/internal/core"
	"github.com/harper/docrag/internal/models"
)

var (
	indexChunkSize int
	indexOverlap   int
	indexWorkers   int
	indexName      string
)

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Chunk, embed, and store a document",
		Long: `Chunk, embed, and store a document.

The file is split into overlapping chunks that prefer to end at a
sentence or paragraph break. Chunks are embedded by a bounded pool of
workers; a chunk that fails to embed is counted and the rest continue.
PDF files are converted to text first. Use "-" to read from stdin.

Examples:
  docrag index notes.md
  docrag index --chunk-size 500 --overlap 100 --workers 8 guide.pdf
  cat log.txt | docrag index --name log.txt -`,
		Args: cobra.ExactArgs(1),
		RunE: runIndex,
	}

	cmd.Flags().IntVar(&indexChunkSize, "chunk-size", 0, "Characters per chunk (default from config, 1000)")
	cmd.Flags().IntVar(&indexOverlap, "overlap", -1, "Characters shared by consecutive chunks (default from config, 200)")
	cmd.Flags().IntVar(&indexWorkers, "workers", 0, "Concurrent embedding calls (default from config, 4)")
	cmd.Flags().StringVar(&indexName, "name", "", "Source file name to record (default: the file's base name)")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := args[0]

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	name := indexName
	if name == "" && path != "-" {
		name = filepath.Base(path)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	req := core.IndexRequest{
		Filename: name,
		Params:   indexParams(a.Indexer.Defaults()),
	}

	var result *models.IndexingJobResult
	if models.SourceTypeForFilename(name) == models.SourcePDF {
		result, err = a.Indexer.IndexPDF(cmd.Context(), data, req)
	} else {
		req.Text = string(data)
		result, err = a.Indexer.IndexText(cmd.Context(), req)
	}
	if err != nil {
		return fmt.Errorf("indexing %s: %w", path, err)
	}

	return printJobResult(cmd.OutOrStdout(), result)
}

// indexParams overlays explicitly set flags on the configured defaults
func indexParams(defaults core.IndexParams) core.IndexParams {
	p := defaults
	if indexChunkSize > 0 {
		p.ChunkSize = indexChunkSize
	}
	if indexOverlap >= 0 {
		p.ChunkOverlap = indexOverlap
	}
	if indexWorkers > 0 {
		p.MaxWorkers = indexWorkers
	}
	return p
}

func printJobResult(w io.Writer, r *models.IndexingJobResult) error {
	if wantJSON() {
		data, err := json.MarshalIndent(map[string]interface{}{
			"success":                 true,
			"complete":                r.Complete(),
			"job_id":                  r.JobID,
			"filename":                r.Filename,
			"total_chunks":            r.TotalChunks,
			"chunks_saved":            r.ChunksSaved,
			"chunks_failed":           r.ChunksFailed,
			"failed_chunks":           r.FailedIndexes,
			"total_characters":        r.TotalCharacters,
			"chunk_size":              r.ChunkSize,
			"chunk_overlap":           r.ChunkOverlap,
			"processing_time_seconds": r.Elapsed.Seconds(),
			"average_time_per_chunk":  r.AveragePerChunk.Seconds(),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(w, "%s\n", data)
		return nil
	}

	mark := "✓"
	if !r.Complete() {
		mark = "!"
	}
	fmt.Fprintf(w, "%s Indexed %s: %d/%d chunks saved", mark, r.Filename, r.ChunksSaved, r.TotalChunks)
	if r.ChunksFailed > 0 {
		fmt.Fprintf(w, ", %d failed %v", r.ChunksFailed, r.FailedIndexes)
	}
	fmt.Fprintln(w)
	if !quiet {
		fmt.Fprintf(w, "  %d characters, chunk size %d, overlap %d\n", r.TotalCharacters, r.ChunkSize, r.ChunkOverlap)
		fmt.Fprintf(w, "  %s total, %s per chunk\n", formatDuration(r.Elapsed), formatDuration(r.AveragePerChunk))
	}
	return nil
}
