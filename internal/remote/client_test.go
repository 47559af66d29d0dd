package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harper/docrag/internal/core"
	"github.com/harper/docrag/internal/logging"
	"github.com/harper/docrag/internal/models"
	docmcp "github.com/harper/docrag/internal/mcp"
	"github.com/harper/docrag/internal/storage/sqlite"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	result  *mcp.CallToolResult
	err     error
	lastReq mcp.CallToolRequest
	closed  bool
}

func (f *fakeCaller) CallTool(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f.lastReq = req
	return f.result, f.err
}

func (f *fakeCaller) Close() error {
	f.closed = true
	return nil
}

func textResult(s string) *mcp.CallToolResult {
	return mcp.NewToolResultText(s)
}

func Test_Client_Embed(t *testing.T) {
	caller := &fakeCaller{result: textResult(`{"success":true,"embedding":[0.5,0.25],"dimensions":2}`)}
	c := New(caller, "http://remote:8080", time.Second, nil)

	vec, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, models.Vector{0.5, 0.25}, vec)
	assert.Equal(t, "create_embedding", caller.lastReq.Params.Name)
	assert.Equal(t, "remote", c.Name())
}

func Test_Client_RemoteFailure(t *testing.T) {
	result := textResult(`{"success":false,"error":"Query is required"}`)
	result.IsError = true
	c := New(&fakeCaller{result: result}, "http://remote", time.Second, nil)

	_, err := c.SearchSimilar(context.Background(), "", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Query is required")
}

func Test_Client_TransportError(t *testing.T) {
	c := New(&fakeCaller{err: errors.New("connection refused")}, "http://remote", time.Second, nil)

	_, err := c.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func Test_Client_EmptyResponses(t *testing.T) {
	c := New(&fakeCaller{result: &mcp.CallToolResult{}}, "http://remote", time.Second, nil)

	results, err := c.SearchSimilar(context.Background(), "q", 4)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = c.Embed(context.Background(), "q")
	assert.ErrorIs(t, err, ErrNoContent)
}

func Test_Client_MalformedResponse(t *testing.T) {
	c := New(&fakeCaller{result: textResult("not json")}, "http://remote", time.Second, nil)

	_, err := c.Count(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func Test_Client_Close(t *testing.T) {
	caller := &fakeCaller{}
	require.NoError(t, New(caller, "", 0, nil).Close())
	assert.True(t, caller.closed)
}

// letterEmbedder gives each text a vector of letter counts
type letterEmbedder struct{}

func (letterEmbedder) Name() string { return "letters" }

func (letterEmbedder) Embed(_ context.Context, text string) (models.Vector, error) {
	v := make(models.Vector, 26)
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v, nil
}

// startRemote serves the tool set in-process and returns a connected client
func startRemote(t *testing.T) *Client {
	t.Helper()

	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := sqlite.NewDocumentStore(db)
	logger := logging.Discard()
	indexer := core.NewIndexer(letterEmbedder{}, store, core.DefaultIndexParams(), logger)
	retriever := core.NewRetriever(letterEmbedder{}, store, core.DefaultSearchPolicy(), nil, logger)

	ctx := context.Background()
	_, err = indexer.SaveDocument(ctx, core.SaveRequest{Content: "aaaa", SourceFile: "a.txt"})
	require.NoError(t, err)
	_, err = indexer.SaveDocument(ctx, core.SaveRequest{Content: "bbbb", SourceFile: "b.txt"})
	require.NoError(t, err)

	srv := docmcp.NewServer("docrag-test", "test", docmcp.NewHandlers(indexer, retriever, logger))
	mc, err := client.NewInProcessClient(srv)
	require.NoError(t, err)
	require.NoError(t, Initialize(ctx, mc))
	t.Cleanup(func() { _ = mc.Close() })

	return New(mc, "inprocess", 5*time.Second, logger)
}

func Test_Client_AgainstServer(t *testing.T) {
	c := startRemote(t)
	ctx := context.Background()

	vec, err := c.Embed(ctx, "ab")
	require.NoError(t, err)
	require.Len(t, vec, 26)
	assert.Equal(t, float32(1), vec[0])

	results, err := c.SearchSimilar(ctx, "aaa", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "aaaa", results[0].Record.Content)
	assert.Equal(t, "a.txt", results[0].Record.SourceFile)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.InDelta(t, 0.0, results[1].Similarity, 1e-6)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func Test_Client_AsFirstStage(t *testing.T) {
	c := startRemote(t)

	// The local side has no records; the remote supplies candidates
	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	retriever := core.NewRetriever(c, sqlite.NewDocumentStore(db), core.DefaultSearchPolicy(),
		core.NewCitationFormatter("en"), nil, core.WithFirstStage(c, SourceName))

	resp, err := retriever.SemanticSearch(context.Background(), core.SemanticRequest{Query: "aaa", Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, "remote", resp.Source)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "[a.txt]", resp.Results[0].Citation)
	assert.Equal(t, []string{"a.txt (1 chunk)"}, resp.SourcesSummary)
}
