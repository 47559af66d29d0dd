// ABOUTME: Builds the configured local embedding provider
// ABOUTME: The remote strategy is assembled by the app since it needs an MCP session
package embedding

import (
	"fmt"

	"github.com/harper/docrag/internal/config"
)

// New returns the provider named by cfg.Provider, undecorated
func New(cfg config.EmbeddingConfig) (Provider, error) {
	switch cfg.Provider {
	case config.EmbedderOllama:
		return NewOllama(OllamaConfig{
			BaseURL:    cfg.OllamaURL,
			Model:      cfg.OllamaModel,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		}), nil
	case config.EmbedderOpenAI:
		p, err := NewOpenAI(OpenAIConfig{
			APIKey:     cfg.OpenAIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			Dimensions: cfg.Dimensions,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.EmbedderRemote:
		return nil, fmt.Errorf("remote embedding provider requires an MCP connection")
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
