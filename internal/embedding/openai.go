// ABOUTME: OpenAI embedding provider using go-openai
// ABOUTME: Supports OpenAI-compatible servers through a configurable base URL
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harper/docrag/internal/models"
	"github.com/harper/docrag/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is the default embedding model
const DefaultOpenAIModel = openai.SmallEmbedding3

// OpenAIConfig holds configuration for the OpenAI provider
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	MaxRetries int
	RetryDelay time.Duration
}

// OpenAI wraps the OpenAI embeddings endpoint with retry logic
type OpenAI struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAI creates an OpenAI provider
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := openai.EmbeddingModel(cfg.Model)
	if cfg.Model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		dimensions: cfg.Dimensions,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Name identifies the provider in logs and errors
func (o *OpenAI) Name() string {
	return "openai"
}

// Embed generates a vector for text
func (o *OpenAI) Embed(ctx context.Context, text string) (models.Vector, error) {
	var vec models.Vector
	err := util.Retry(ctx, o.maxRetries, o.retryDelay, func(int) error {
		resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input:      []string{text},
			Model:      o.model,
			Dimensions: o.dimensions,
		})
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != 429 {
				return util.Permanent(err)
			}
			return err
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("no embeddings returned")
		}
		vec = models.Vector(resp.Data[0].Embedding)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	return vec, nil
}
