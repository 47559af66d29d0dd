// ABOUTME: Embedding provider contract and the guard applied to every call
// ABOUTME: The guard enforces a per-call timeout and rejects empty or non-finite vectors
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harper/docrag/internal/models"
)

// Errors reported by guarded providers
var (
	ErrEmptyEmbedding   = errors.New("embedding provider returned an empty vector")
	ErrInvalidEmbedding = errors.New("embedding provider returned an invalid vector")
)

// Provider turns text into a fixed-dimension vector
type Provider interface {
	Embed(ctx context.Context, text string) (models.Vector, error)
	Name() string
}

type guarded struct {
	next    Provider
	timeout time.Duration
}

// Guard wraps a provider so each call is bounded by timeout (zero disables it)
// and a malformed vector is reported as a failure instead of being returned.
func Guard(p Provider, timeout time.Duration) Provider {
	return &guarded{next: p, timeout: timeout}
}

func (g *guarded) Name() string {
	return g.next.Name()
}

func (g *guarded) Embed(ctx context.Context, text string) (models.Vector, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	vec, err := g.next.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.next.Name(), err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%s: %w", g.next.Name(), ErrEmptyEmbedding)
	}
	if err := vec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", g.next.Name(), ErrInvalidEmbedding, err)
	}
	return vec, nil
}
