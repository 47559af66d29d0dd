// ABOUTME: Root command, global flags, and shared application setup for the CLI
// ABOUTME: Loads .env and configuration, then builds the pipeline for each command
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/docrag/internal/app"
	"github.com/harper/docrag/internal/config"
	"github.com/harper/docrag/internal/logging"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	configPath   string
)

const banner = `
█▀▄ █▀█ █▀▀ █▀█ ▄▀█ █▀▀
█▄▀ █▄█ █▄▄ █▀▄ █▀█ █▄█`

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docrag",
		Short: "Index documents and search them by meaning",
		Long: banner + `

docrag splits documents into overlapping chunks, embeds each chunk with
an embedding model (Ollama or OpenAI), and stores them locally in SQLite
or in Charm cloud KV. Queries are embedded the same way and ranked by
cosine similarity, optionally filtered by a threshold and cited.

Run 'docrag mcp' to expose the same operations to LLM agents.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet cannot be used together")
			}
			switch outputFormat {
			case "auto", "table", "json":
			default:
				return fmt.Errorf("--format must be auto, table or json, got %q", outputFormat)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, json")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default $"+config.ConfigEnvVar+")")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewSaveCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads .env, then the layered configuration
func loadConfig() (*config.Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger, letting -v and -q override the configured level
func newLogger(cfg *config.Config) *log.Logger {
	level := cfg.Log.Level
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.New(os.Stderr, level, cfg.Log.Format)
}

// openApp loads configuration and builds the pipeline
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, newLogger(cfg))
	if err != nil {
		return nil, fmt.Errorf("initializing: %w", err)
	}
	return a, nil
}

// wantJSON reports whether output should be JSON
func wantJSON() bool {
	return outputFormat == "json"
}
