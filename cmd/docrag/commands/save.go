// ABOUTME: CLI command to save a single document without chunking
// ABOUTME: Reads text from an argument, a file, or stdin and stores it with provenance
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/docrag/internal/core"
	"github.com/harper/docrag/internal/models"
)

var (
	saveFile   string
	saveSource string
	saveType   string
	savePage   int
	saveMeta   []string
)

// NewSaveCmd creates the save command
func NewSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save [text]",
		Short: "Save one document as a single record",
		Long: `Save one document as a single record.

The whole text is embedded as one piece. Use 'docrag index' for long
documents that should be chunked.

Examples:
  docrag save "REST endpoints return JSON"
  docrag save --file faq.txt --page 3
  docrag save --source guide.pdf --type pdf --meta team=docs "Install with brew"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSave,
	}

	cmd.Flags().StringVar(&saveFile, "file", "", "Read the document from a file")
	cmd.Flags().StringVar(&saveSource, "source", "", "Source file name (default: the file name or manual_entry)")
	cmd.Flags().StringVar(&saveType, "type", "", "Source type: pdf, txt, markdown, manual")
	cmd.Flags().IntVar(&savePage, "page", 0, "Page number the text came from")
	cmd.Flags().StringSliceVar(&saveMeta, "meta", []string{}, "Metadata as key=value (repeatable)")

	return cmd
}

func runSave(cmd *cobra.Command, args []string) error {
	var text string
	switch {
	case saveFile != "":
		data, err := os.ReadFile(saveFile)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		text = string(data)
	case len(args) > 0:
		text = args[0]
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("no text provided")
	}

	req, err := buildSaveRequest(text)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	saved, err := a.Indexer.SaveDocument(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	if wantJSON() {
		data, err := json.MarshalIndent(map[string]interface{}{
			"success":              true,
			"document_id":          saved.ID,
			"embedding_dimensions": saved.Dimensions,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
		return nil
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved document %d (%d dimensions)\n", saved.ID, saved.Dimensions)
	}
	return nil
}

// buildSaveRequest turns the flags into a save request
func buildSaveRequest(text string) (core.SaveRequest, error) {
	source := saveSource
	if source == "" && saveFile != "" {
		source = filepath.Base(saveFile)
	}

	sourceType, err := models.ParseSourceType(saveType)
	if err != nil {
		return core.SaveRequest{}, err
	}
	if saveType == "" && source != "" {
		sourceType = models.SourceTypeForFilename(source)
	}

	meta, err := parseMetadata(saveMeta)
	if err != nil {
		return core.SaveRequest{}, err
	}

	req := core.SaveRequest{
		Content:     text,
		SourceFile:  source,
		SourceType:  sourceType,
		TotalChunks: 1,
		Metadata:    meta,
	}
	if savePage > 0 {
		page := savePage
		req.PageNumber = &page
	}
	return req, nil
}

// parseMetadata parses key=value pairs
func parseMetadata(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("metadata must be key=value, got %q", pair)
		}
		meta[k] = strings.TrimSpace(v)
	}
	return meta, nil
}
