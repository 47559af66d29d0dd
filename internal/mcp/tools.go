// ABOUTME: MCP tool definitions and registration for the document retrieval server
// ABOUTME: Tool kinds form a closed set mapped to handlers through a single table
package mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ToolKind enumerates every tool the server exposes
type ToolKind int

const (
	ToolCreateEmbedding ToolKind = iota
	ToolSaveDocument
	ToolSearchSimilar
	ToolSemanticSearch
	ToolProcessTextChunks
	ToolProcessPDF
	ToolCountDocuments

	toolKindCount
)

var toolNames = [toolKindCount]string{
	ToolCreateEmbedding:   "create_embedding",
	ToolSaveDocument:      "save_document",
	ToolSearchSimilar:     "search_similar",
	ToolSemanticSearch:    "semantic_search",
	ToolProcessTextChunks: "process_text_chunks",
	ToolProcessPDF:        "process_pdf",
	ToolCountDocuments:    "count_documents",
}

// String returns the wire name of the tool
func (k ToolKind) String() string {
	if k < 0 || k >= toolKindCount {
		return fmt.Sprintf("ToolKind(%d)", int(k))
	}
	return toolNames[k]
}

// AllToolKinds lists every tool kind in declaration order
func AllToolKinds() []ToolKind {
	kinds := make([]ToolKind, 0, toolKindCount)
	for k := ToolKind(0); k < toolKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseToolKind maps a wire name back to its kind
func ParseToolKind(name string) (ToolKind, bool) {
	for k, n := range toolNames {
		if n == name {
			return ToolKind(k), true
		}
	}
	return 0, false
}

// handlerTable binds each tool kind to its handler
func (h *Handlers) handlerTable() map[ToolKind]mcpserver.ToolHandlerFunc {
	return map[ToolKind]mcpserver.ToolHandlerFunc{
		ToolCreateEmbedding:   h.CreateEmbedding,
		ToolSaveDocument:      h.SaveDocument,
		ToolSearchSimilar:     h.SearchSimilar,
		ToolSemanticSearch:    h.SemanticSearch,
		ToolProcessTextChunks: h.ProcessTextChunks,
		ToolProcessPDF:        h.ProcessPDF,
		ToolCountDocuments:    h.CountDocuments,
	}
}

// chunkingProperties are shared by the bulk indexing tools
func chunkingProperties(props map[string]interface{}) map[string]interface{} {
	props["filename"] = map[string]interface{}{
		"type":        "string",
		"description": "Source file name; its extension sets the source type",
	}
	props["chunk_size"] = map[string]interface{}{
		"type":        "number",
		"description": "Characters per chunk (default: 1000)",
		"default":     1000,
	}
	props["chunk_overlap"] = map[string]interface{}{
		"type":        "number",
		"description": "Characters shared by consecutive chunks (default: 200)",
		"default":     200,
	}
	props["max_workers"] = map[string]interface{}{
		"type":        "number",
		"description": "Maximum concurrent embedding calls (default: 4)",
		"default":     4,
	}
	return props
}

// definition returns the MCP schema for a tool kind
func definition(k ToolKind) mcp.Tool {
	switch k {
	case ToolCreateEmbedding:
		return mcp.Tool{
			Name:        k.String(),
			Description: "Generate an embedding vector for a piece of text.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text to embed",
					},
				},
				Required: []string{"text"},
			},
		}

	case ToolSaveDocument:
		return mcp.Tool{
			Name:        k.String(),
			Description: "Embed a document and store it with its provenance.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"content": map[string]interface{}{
						"type":        "string",
						"description": "Document text",
					},
					"source_file": map[string]interface{}{
						"type":        "string",
						"description": "Source file name (default: manual_entry)",
					},
					"source_type": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"pdf", "txt", "markdown", "manual"},
						"description": "Kind of source (default: manual)",
					},
					"chunk_index": map[string]interface{}{
						"type":        "number",
						"description": "0-based chunk position within the source",
					},
					"total_chunks": map[string]interface{}{
						"type":        "number",
						"description": "Number of chunks in the source",
					},
					"page_number": map[string]interface{}{
						"type":        "number",
						"description": "Page the chunk came from",
					},
					"metadata": map[string]interface{}{
						"type":        "object",
						"description": "Arbitrary key/value metadata",
					},
				},
				Required: []string{"content"},
			},
		}

	case ToolSearchSimilar:
		return mcp.Tool{
			Name:        k.String(),
			Description: "Rank stored documents by cosine similarity to a query.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Search query",
					},
					"limit": map[string]interface{}{
						"type":        "number",
						"description": "Maximum number of results to return (default: 5)",
						"default":     5,
					},
				},
				Required: []string{"query"},
			},
		}

	case ToolSemanticSearch:
		return mcp.Tool{
			Name:        k.String(),
			Description: "Search documents keeping only results above a similarity threshold, with source citations.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Search query",
					},
					"limit": map[string]interface{}{
						"type":        "number",
						"description": "Maximum number of results to return (default: 3)",
						"default":     3,
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Minimum similarity, clamped to the configured range (default: 0.6)",
					},
					"compare_mode": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the unfiltered results for comparison",
						"default":     false,
					},
				},
				Required: []string{"query"},
			},
		}

	case ToolProcessTextChunks:
		return mcp.Tool{
			Name:        k.String(),
			Description: "Split text into overlapping chunks and embed and store each one in parallel.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: chunkingProperties(map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text to index",
					},
				}),
				Required: []string{"text"},
			},
		}

	case ToolProcessPDF:
		return mcp.Tool{
			Name:        k.String(),
			Description: "Extract text from a base64-encoded PDF and index it in chunks.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: chunkingProperties(map[string]interface{}{
					"pdf_base64": map[string]interface{}{
						"type":        "string",
						"description": "PDF file content, base64 encoded",
					},
				}),
				Required: []string{"pdf_base64"},
			},
		}

	case ToolCountDocuments:
		return mcp.Tool{
			Name:        k.String(),
			Description: "Count stored document chunks.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]interface{}{},
			},
		}
	}

	panic(fmt.Sprintf("no definition for %s", k))
}

// RegisterTools registers every tool kind with the server
func RegisterTools(server *mcpserver.MCPServer, handlers *Handlers) {
	table := handlers.handlerTable()
	for _, k := range AllToolKinds() {
		server.AddTool(definition(k), table[k])
	}
}

// NewServer creates an MCP server with all tools registered
func NewServer(name, version string, handlers *Handlers) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer(
		name,
		version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	RegisterTools(server, handlers)
	return server
}
