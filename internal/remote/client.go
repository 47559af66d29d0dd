// ABOUTME: Remote strategy that proxies embedding and search to another instance over MCP
// ABOUTME: Implements the embedder and first-stage searcher contracts via tool calls
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/docrag/internal/models"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// SourceName labels results that came from a remote instance
const SourceName = "remote"

// DefaultTimeout bounds a single remote call; embedding on the far side can be slow
const DefaultTimeout = 120 * time.Second

// ErrNoContent is returned when the remote answers with an empty result
var ErrNoContent = errors.New("no content in remote response")

// Caller is the part of an MCP client the remote strategy needs
type Caller interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Client talks to a remote instance of this service
type Client struct {
	caller  Caller
	url     string
	timeout time.Duration
	logger  *log.Logger
}

// New wraps an already initialized MCP caller
func New(caller Caller, url string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		caller:  caller,
		url:     url,
		timeout: timeout,
		logger:  logger,
	}
}

// Dial connects to a remote instance over streamable HTTP and runs the MCP handshake
func Dial(ctx context.Context, url string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	c, err := client.NewStreamableHttpClient(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client for %s: %w", url, err)
	}
	if err := Initialize(ctx, c); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize MCP session with %s: %w", url, err)
	}
	return New(c, url, timeout, logger), nil
}

// Initialize starts an MCP client and performs the protocol handshake
func Initialize(ctx context.Context, c *client.Client) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "docrag-remote",
		Version: "0.1.0",
	}
	_, err := c.Initialize(ctx, req)
	return err
}

// Name identifies the strategy in logs and errors
func (c *Client) Name() string {
	return SourceName
}

// URL returns the remote endpoint
func (c *Client) URL() string {
	return c.url
}

// envelope is the common shape of every tool response
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// call invokes a remote tool and decodes its JSON payload into out
func (c *Client) call(ctx context.Context, tool string, args map[string]interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	c.logger.Debug("calling remote tool", "tool", tool, "url", c.url)
	result, err := c.caller.CallTool(ctx, req)
	if err != nil {
		return fmt.Errorf("remote %s: %w", tool, err)
	}

	text, ok := firstText(result)
	if !ok {
		return fmt.Errorf("remote %s: %w", tool, ErrNoContent)
	}

	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		if result.IsError {
			return fmt.Errorf("remote %s error: %s", tool, text)
		}
		return fmt.Errorf("remote %s: malformed response: %w", tool, err)
	}
	if result.IsError || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("remote %s error: %s", tool, msg)
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("remote %s: malformed response: %w", tool, err)
	}
	return nil
}

func firstText(result *mcp.CallToolResult) (string, bool) {
	if result == nil {
		return "", false
	}
	for _, content := range result.Content {
		switch tc := content.(type) {
		case mcp.TextContent:
			return tc.Text, true
		case *mcp.TextContent:
			return tc.Text, true
		}
	}
	return "", false
}

// Embed asks the remote instance for an embedding
func (c *Client) Embed(ctx context.Context, text string) (models.Vector, error) {
	var resp struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := c.call(ctx, "create_embedding", map[string]interface{}{"text": text}, &resp); err != nil {
		return nil, err
	}

	vec := make(models.Vector, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// SearchSimilar runs the remote instance's unfiltered ranking
func (c *Client) SearchSimilar(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	var resp struct {
		Documents []models.DocumentView `json:"documents"`
	}
	err := c.call(ctx, "search_similar", map[string]interface{}{
		"query": query,
		"limit": limit,
	}, &resp)
	if errors.Is(err, ErrNoContent) {
		return []models.SearchResult{}, nil
	}
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(resp.Documents))
	for _, doc := range resp.Documents {
		results = append(results, doc.SearchResult())
	}
	c.logger.Debug("remote search", "requested", limit, "received", len(results))
	return results, nil
}

// Count returns the remote document count
func (c *Client) Count(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.call(ctx, "count_documents", map[string]interface{}{}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Close closes the underlying session when it supports closing
func (c *Client) Close() error {
	if closer, ok := c.caller.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
