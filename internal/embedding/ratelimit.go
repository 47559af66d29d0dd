// ABOUTME: Rate limiting decorator for embedding providers
// ABOUTME: Throttles calls with a token bucket shared by all workers
package embedding

import (
	"context"
	"fmt"

	"github.com/harper/docrag/internal/models"
	"golang.org/x/time/rate"
)

type rateLimited struct {
	next    Provider
	limiter *rate.Limiter
}

// NewRateLimited caps p at perSecond calls with the given burst.
// A non-positive rate returns p unchanged.
func NewRateLimited(p Provider, perSecond float64, burst int) Provider {
	if perSecond <= 0 {
		return p
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{next: p, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *rateLimited) Name() string {
	return r.next.Name()
}

func (r *rateLimited) Embed(ctx context.Context, text string) (models.Vector, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return r.next.Embed(ctx, text)
}
