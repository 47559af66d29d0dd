// ABOUTME: MCP tool handler implementations for the document retrieval server
// ABOUTME: Every handler answers with a JSON payload carrying a success flag
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/harper/docrag/internal/core"
	"github.com/harper/docrag/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	indexer   *core.Indexer
	retriever *core.Retriever
	logger    *log.Logger
}

// NewHandlers creates handlers over an indexer and a retriever
func NewHandlers(indexer *core.Indexer, retriever *core.Retriever, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Handlers{
		indexer:   indexer,
		retriever: retriever,
		logger:    logger,
	}
}

// respond marshals payload as the tool's text result
func respond(payload map[string]interface{}) (*mcp.CallToolResult, error) {
	payload["success"] = true
	data, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// fail reports a domain failure as a structured error result
func fail(err error) (*mcp.CallToolResult, error) {
	data, merr := json.Marshal(map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
	if merr != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result := mcp.NewToolResultText(string(data))
	result.IsError = true
	return result, nil
}

// CreateEmbedding handles the create_embedding tool
func (h *Handlers) CreateEmbedding(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := request.GetString("text", "")

	vec, err := h.retriever.Embed(ctx, text)
	if err != nil {
		h.logger.Warn("create_embedding failed", "error", err)
		return fail(err)
	}

	return respond(map[string]interface{}{
		"embedding":  vec,
		"dimensions": len(vec),
	})
}

// SaveDocument handles the save_document tool
func (h *Handlers) SaveDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req := core.SaveRequest{
		Content:     request.GetString("content", ""),
		SourceFile:  request.GetString("source_file", ""),
		SourceType:  models.SourceType(request.GetString("source_type", "")),
		ChunkIndex:  request.GetInt("chunk_index", 0),
		TotalChunks: request.GetInt("total_chunks", 1),
		PageNumber:  optionalInt(args, "page_number"),
	}
	if raw, ok := args["metadata"]; ok && raw != nil {
		meta, ok := raw.(map[string]interface{})
		if !ok {
			return fail(fmt.Errorf("%w: metadata must be an object", core.ErrValidation))
		}
		req.Metadata = meta
	}

	saved, err := h.indexer.SaveDocument(ctx, req)
	if err != nil {
		h.logger.Warn("save_document failed", "error", err)
		return fail(err)
	}

	return respond(map[string]interface{}{
		"message":              "Document saved successfully",
		"document_id":          saved.ID,
		"embedding_dimensions": saved.Dimensions,
	})
}

// SearchSimilar handles the search_similar tool
func (h *Handlers) SearchSimilar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	limit := request.GetInt("limit", h.retriever.Policy().DefaultLimit)

	results, err := h.retriever.SearchSimilar(ctx, query, limit)
	if err != nil {
		h.logger.Warn("search_similar failed", "error", err)
		return fail(err)
	}

	return respond(map[string]interface{}{
		"count":     len(results),
		"documents": models.NewDocumentViews(results),
	})
}

// SemanticSearch handles the semantic_search tool
func (h *Handlers) SemanticSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req := core.SemanticRequest{
		Query:       request.GetString("query", ""),
		Limit:       request.GetInt("limit", h.retriever.Policy().SemanticLimit),
		CompareMode: request.GetBool("compare_mode", false),
	}
	if t, ok := optionalFloat(args, "threshold"); ok {
		req.Threshold = &t
	}

	resp, err := h.retriever.SemanticSearch(ctx, req)
	if err != nil {
		h.logger.Warn("semantic_search failed", "error", err)
		return fail(err)
	}

	filtered := models.NewDocumentViews(resp.Results)
	payload := map[string]interface{}{
		"threshold":       resp.Threshold,
		"sources_summary": resp.SourcesSummary,
		"source":          resp.Source,
	}

	if resp.CompareMode {
		payload["compare_mode"] = true
		payload["unfiltered"] = map[string]interface{}{
			"count":     len(resp.Unfiltered),
			"documents": models.NewDocumentViews(resp.Unfiltered),
		}
		payload["filteredResults"] = map[string]interface{}{
			"count":     len(filtered),
			"documents": filtered,
		}
		return respond(payload)
	}

	payload["count"] = len(filtered)
	payload["documents"] = filtered
	payload["isFiltered"] = true
	return respond(payload)
}

// ProcessTextChunks handles the process_text_chunks tool
func (h *Handlers) ProcessTextChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := core.IndexRequest{
		Text:     request.GetString("text", ""),
		Filename: request.GetString("filename", ""),
		Params:   h.indexParams(request),
	}

	result, err := h.indexer.IndexText(ctx, req)
	if err != nil {
		h.logger.Warn("process_text_chunks failed", "error", err)
		return fail(err)
	}
	return respond(jobPayload(result))
}

// ProcessPDF handles the process_pdf tool
func (h *Handlers) ProcessPDF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	encoded, err := request.RequireString("pdf_base64")
	if err != nil {
		return fail(fmt.Errorf("%w: pdf_base64 is required", core.ErrValidation))
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fail(fmt.Errorf("%w: pdf_base64 is not valid base64: %v", core.ErrValidation, err))
	}

	req := core.IndexRequest{
		Filename: request.GetString("filename", "document.pdf"),
		Params:   h.indexParams(request),
	}

	result, err := h.indexer.IndexPDF(ctx, data, req)
	if err != nil {
		h.logger.Warn("process_pdf failed", "error", err)
		return fail(err)
	}
	return respond(jobPayload(result))
}

// CountDocuments handles the count_documents tool
func (h *Handlers) CountDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := h.retriever.Count(ctx)
	if err != nil {
		return fail(err)
	}
	return respond(map[string]interface{}{
		"count": n,
	})
}

func (h *Handlers) indexParams(request mcp.CallToolRequest) core.IndexParams {
	d := h.indexer.Defaults()
	return core.IndexParams{
		ChunkSize:    request.GetInt("chunk_size", d.ChunkSize),
		ChunkOverlap: request.GetInt("chunk_overlap", d.ChunkOverlap),
		MaxWorkers:   request.GetInt("max_workers", d.MaxWorkers),
	}
}

func jobPayload(r *models.IndexingJobResult) map[string]interface{} {
	return map[string]interface{}{
		"job_id":                  r.JobID,
		"complete":                r.Complete(),
		"chunks_saved":            r.ChunksSaved,
		"chunks_failed":           r.ChunksFailed,
		"failed_chunks":           r.FailedIndexes,
		"total_chunks":            r.TotalChunks,
		"total_characters":        r.TotalCharacters,
		"filename":                r.Filename,
		"chunk_size":              r.ChunkSize,
		"chunk_overlap":           r.ChunkOverlap,
		"processing_time_seconds": round(r.Elapsed.Seconds(), 2),
		"average_time_per_chunk":  round(r.AveragePerChunk.Seconds(), 3),
	}
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// optionalInt reads a numeric argument that may be absent or null
func optionalInt(args map[string]interface{}, key string) *int {
	f, ok := optionalFloat(args, key)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

func optionalFloat(args map[string]interface{}, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
