// ABOUTME: Cosine similarity and exhaustive ranking of stored records
// ABOUTME: Records whose dimension differs from the query are skipped and counted
package core

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/harper/docrag/internal/models"
)

// ErrDimensionMismatch is returned when comparing vectors of unequal length
var ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", ErrValidation)

// CosineSimilarity returns dot(a,b)/(|a||b|) accumulated in float64.
// A zero-magnitude vector scores 0; results are bounded to [-1, 1].
func CosineSimilarity(a, b models.Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	// Rounding can push |sim| just past 1
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return max(-1, min(1, sim)), nil
}

// RankOutcome holds ranked results and how many records were unusable
type RankOutcome struct {
	Results []models.SearchResult
	Skipped int
}

// Rank scores every record against query, best first. Ties go to the lower id.
func Rank(query models.Vector, records []models.DocumentRecord) RankOutcome {
	out := RankOutcome{Results: make([]models.SearchResult, 0, len(records))}

	for _, rec := range records {
		sim, err := CosineSimilarity(query, rec.Embedding)
		if err != nil {
			out.Skipped++
			continue
		}
		out.Results = append(out.Results, models.SearchResult{Record: rec, Similarity: sim})
	}

	slices.SortStableFunc(out.Results, func(a, b models.SearchResult) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.ID, b.Record.ID)
	})

	return out
}
