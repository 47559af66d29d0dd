// ABOUTME: Threshold policy and relevance filtering for two-stage search
// ABOUTME: Clamps requested thresholds and keeps results above them up to a limit
package core

import (
	"math"

	"github.com/harper/docrag/internal/config"
	"github.com/harper/docrag/internal/models"
)

// SearchPolicy bounds thresholds and limits for similarity search
type SearchPolicy struct {
	DefaultThreshold float64
	MinThreshold     float64
	MaxThreshold     float64
	DefaultLimit     int
	SemanticLimit    int
	Overfetch        int
}

// DefaultSearchPolicy returns the built-in policy
func DefaultSearchPolicy() SearchPolicy {
	return SearchPolicy{
		DefaultThreshold: 0.6,
		MinThreshold:     0.3,
		MaxThreshold:     0.95,
		DefaultLimit:     5,
		SemanticLimit:    3,
		Overfetch:        2,
	}
}

// PolicyFromConfig builds a policy from search configuration
func PolicyFromConfig(cfg config.SearchConfig) SearchPolicy {
	return SearchPolicy{
		DefaultThreshold: cfg.DefaultThreshold,
		MinThreshold:     cfg.MinThreshold,
		MaxThreshold:     cfg.MaxThreshold,
		DefaultLimit:     cfg.DefaultLimit,
		SemanticLimit:    cfg.SemanticLimit,
		Overfetch:        cfg.Overfetch,
	}
}

// ClampThreshold forces t into [MinThreshold, MaxThreshold]; t must be finite
func (p SearchPolicy) ClampThreshold(t float64) float64 {
	return max(p.MinThreshold, min(p.MaxThreshold, t))
}

// ValidateThreshold rejects NaN and infinite thresholds, which clamping cannot fix
func ValidateThreshold(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return validationf("threshold must be a finite number, got %v", t)
	}
	return nil
}

// CandidateLimit is how many first-stage results to request for limit kept results
func (p SearchPolicy) CandidateLimit(limit int) int {
	overfetch := p.Overfetch
	if overfetch < 1 {
		overfetch = 1
	}
	return limit * overfetch
}

// FilterByThreshold walks ranked in order, keeping results whose similarity
// is at least threshold until limit are kept.
func FilterByThreshold(ranked []models.SearchResult, limit int, threshold float64) []models.SearchResult {
	kept := make([]models.SearchResult, 0, min(limit, len(ranked)))
	for _, r := range ranked {
		if len(kept) >= limit {
			break
		}
		if r.Similarity >= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}
