// ABOUTME: Standalone MCP server entry point for deployments without the CLI
// ABOUTME: Loads configuration, builds the pipeline, and serves tools until signalled
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/harper/docrag/internal/app"
	"github.com/harper/docrag/internal/config"
	"github.com/harper/docrag/internal/logging"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to a YAML config file")
	transport := flag.String("transport", "", "Transport: stdio or http")
	addr := flag.String("addr", "", "Listen address for the http transport")
	flag.Parse()

	// A missing .env is normal in production
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *transport != "" {
		cfg.Server.Transport = *transport
	}
	if *addr != "" {
		cfg.Server.HTTPAddr = *addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// stdio carries the protocol, so logs go to stderr
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("error closing", "error", err)
		}
	}()

	logger.Info("starting docrag MCP server",
		"version", version,
		"store", cfg.Storage.Backend,
		"embedder", a.Embedder.Name(),
		"search", cfg.Search.Backend)

	return app.Serve(ctx, a.Server(version), cfg.Server, logger)
}
