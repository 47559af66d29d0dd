// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Exposes indexing and search to LLM agents over stdio or streamable HTTP
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/docrag/internal/app"
	"github.com/harper/docrag/internal/config"
)

var (
	mcpTransport string
	mcpAddr      string
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs docrag as an MCP (Model Context Protocol) server so LLM agents
like Claude can save documents, index text and PDFs, and run
similarity or threshold-filtered semantic search.

Uses stdio by default. With --transport http it serves streamable
HTTP, which is also what another instance connects to when configured
with DOCRAG_REMOTE_URL.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  docrag mcp

  # Serve over HTTP for remote instances
  docrag mcp --transport http --addr :8080

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "docrag": {
  #       "command": "docrag",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	cmd.Flags().StringVar(&mcpTransport, "transport", "", "Transport: stdio or http (default from config)")
	cmd.Flags().StringVar(&mcpAddr, "addr", "", "Listen address for the http transport (default from config)")

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	if mcpTransport != "" && mcpTransport != config.TransportStdio && mcpTransport != config.TransportHTTP {
		return fmt.Errorf("--transport must be stdio or http, got %q", mcpTransport)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.Logger.Warn("error closing storage", "error", err)
		}
	}()

	serverCfg := a.Config.Server
	if mcpTransport != "" {
		serverCfg.Transport = mcpTransport
	}
	if mcpAddr != "" {
		serverCfg.HTTPAddr = mcpAddr
	}
	if err := app.Serve(ctx, a.Server(versionInfo.Version), serverCfg, a.Logger); err != nil {
		return err
	}
	a.Logger.Info("shutdown complete")
	return nil
}
