// ABOUTME: Assembles storage, embedding, indexing, and retrieval from configuration
// ABOUTME: Shared by the CLI commands, the standalone server, and the benchmark runner
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/harper/docrag/internal/config"
	"github.com/harper/docrag/internal/core"
	"github.com/harper/docrag/internal/embedding"
	"github.com/harper/docrag/internal/mcp"
	"github.com/harper/docrag/internal/pdf"
	"github.com/harper/docrag/internal/remote"
	"github.com/harper/docrag/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// App holds the wired components
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Store     storage.VectorStore
	Embedder  embedding.Provider
	Indexer   *core.Indexer
	Retriever *core.Retriever

	remote *remote.Client
}

// New opens the configured store and embedding strategy and builds the pipeline
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, err
	}
	return NewWithStore(ctx, cfg, store, logger)
}

// NewWithStore builds the pipeline over an already opened store
func NewWithStore(ctx context.Context, cfg *config.Config, store storage.VectorStore, logger *log.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		Store:  store,
	}

	if cfg.UsesRemote() {
		rc, err := remote.Dial(ctx, cfg.Remote.URL, cfg.Remote.Timeout, logger.With("component", "remote"))
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		a.remote = rc
		logger.Info("connected to remote instance", "url", cfg.Remote.URL)
	}

	emb, err := a.buildEmbedder()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Embedder = emb

	a.Indexer = core.NewIndexer(emb, store, core.IndexParams{
		ChunkSize:    cfg.Indexing.ChunkSize,
		ChunkOverlap: cfg.Indexing.ChunkOverlap,
		MaxWorkers:   cfg.Indexing.MaxWorkers,
	}, logger.With("component", "indexer"), core.WithExtractor(pdf.NewExtractor()))

	var opts []core.RetrieverOption
	if cfg.Search.Backend == config.SearchRemote {
		opts = append(opts, core.WithFirstStage(a.remote, remote.SourceName))
	}
	a.Retriever = core.NewRetriever(emb, store, core.PolicyFromConfig(cfg.Search),
		core.NewCitationFormatter(cfg.Search.CitationLanguage), logger.With("component", "retriever"), opts...)

	return a, nil
}

// buildEmbedder picks the provider, then applies rate limiting and the per-call guard
func (a *App) buildEmbedder() (embedding.Provider, error) {
	cfg := a.Config.Embedding

	var (
		base    embedding.Provider
		timeout = cfg.Timeout
	)
	if cfg.Provider == config.EmbedderRemote {
		base = a.remote
		timeout = a.Config.Remote.Timeout
	} else {
		p, err := embedding.New(cfg)
		if err != nil {
			return nil, err
		}
		base = p
	}

	a.Logger.Debug("embedding provider", "provider", base.Name(), "timeout", timeout, "rate", cfg.RateLimit)
	return embedding.NewRateLimited(embedding.Guard(base, timeout), cfg.RateLimit, cfg.RateBurst), nil
}

// Handlers returns MCP tool handlers over the pipeline
func (a *App) Handlers() *mcp.Handlers {
	return mcp.NewHandlers(a.Indexer, a.Retriever, a.Logger.With("component", "mcp"))
}

// Server returns an MCP server exposing every tool
func (a *App) Server(version string) *mcpserver.MCPServer {
	return mcp.NewServer(a.Config.Server.Name, version, a.Handlers())
}

// Close releases the remote session and the store
func (a *App) Close() error {
	var errs []error
	if a.remote != nil {
		errs = append(errs, a.remote.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

// Serve runs the MCP server on the configured transport until ctx is done
func Serve(ctx context.Context, srv *mcpserver.MCPServer, cfg config.ServerConfig, logger *log.Logger) error {
	switch cfg.Transport {
	case config.TransportHTTP:
		httpServer := mcpserver.NewStreamableHTTPServer(srv)

		serverErr := make(chan error, 1)
		go func() {
			logger.Info("MCP server listening", "transport", "http", "addr", cfg.HTTPAddr)
			serverErr <- httpServer.Start(cfg.HTTPAddr)
		}()

		select {
		case <-ctx.Done():
			logger.Info("shutting down MCP server")
			return httpServer.Shutdown(context.Background())
		case err := <-serverErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		}

	case config.TransportStdio, "":
		serverErr := make(chan error, 1)
		go func() {
			logger.Info("MCP server starting", "transport", "stdio")
			serverErr <- mcpserver.ServeStdio(srv)
		}()

		select {
		case <-ctx.Done():
			logger.Info("shutdown signal received")
			return nil
		case err := <-serverErr:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		}

	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
