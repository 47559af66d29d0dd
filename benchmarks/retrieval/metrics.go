// ABOUTME: Retrieval quality metrics for benchmark scenarios
// ABOUTME: Deterministic scores computed from returned chunks against ground truth

package retrieval

import (
	"fmt"
	"strings"

	"github.com/harper/docrag/internal/models"
)

// PassThreshold is the minimum average score for a scenario to pass
const PassThreshold = 0.8

// Evaluate scores one query's filtered results
func Evaluate(q Query, results []models.SearchResult, unfiltered int) QueryResult {
	sources := make([]string, 0, len(results))
	contents := make([]string, 0, len(results))
	for _, r := range results {
		sources = append(sources, r.Record.SourceFile)
		contents = append(contents, r.Record.Content)
	}

	res := QueryResult{
		Query:      q.Text,
		Returned:   len(results),
		Unfiltered: unfiltered,
		Sources:    dedupe(sources),
	}

	if q.ExpectEmpty {
		res.SourceRecall, res.ContextRecall, res.ReciprocalRank = 1, 1, 1
		if len(results) == 0 {
			res.Precision = 1
			res.Detail = "No results above threshold, as expected"
		} else {
			res.Detail = fmt.Sprintf("Expected no results, got %d", len(results))
		}
		return res
	}

	var recallDetail, contextDetail string
	res.SourceRecall, recallDetail = SourceRecall(sources, q.ExpectedSources)
	res.ContextRecall, contextDetail = ContextRecall(contents, q.ExpectedInContext)
	res.Precision = Precision(sources, q.ExpectedSources)
	res.ReciprocalRank = ReciprocalRank(sources, q.ExpectedSources)
	res.Detail = recallDetail + "; " + contextDetail
	return res
}

// SourceRecall is the share of expected sources present in the results
func SourceRecall(retrieved, expected []string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "No sources expected"
	}

	var missing []string
	for _, want := range expected {
		if !containsFold(retrieved, want) {
			missing = append(missing, want)
		}
	}

	recall := float64(len(expected)-len(missing)) / float64(len(expected))
	if len(missing) == 0 {
		return recall, "All expected sources retrieved"
	}
	return recall, fmt.Sprintf("Missing sources: %v", missing)
}

// ContextRecall is the share of expected phrases found in the returned text
func ContextRecall(retrieved, expected []string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "No context expected"
	}

	all := strings.ToUpper(strings.Join(retrieved, " "))

	var missing []string
	for _, item := range expected {
		if !strings.Contains(all, strings.ToUpper(item)) {
			missing = append(missing, item)
		}
	}

	recall := float64(len(expected)-len(missing)) / float64(len(expected))
	if len(missing) == 0 {
		return recall, "All expected context retrieved"
	}
	return recall, fmt.Sprintf("Partial context recall (%.2f), missing: %v", recall, missing)
}

// Precision is the share of returned results that come from an expected source.
// An empty result list has precision 0 when sources were expected.
func Precision(retrieved, expected []string) float64 {
	if len(retrieved) == 0 {
		if len(expected) == 0 {
			return 1.0
		}
		return 0
	}
	hits := 0
	for _, src := range retrieved {
		if containsFold(expected, src) {
			hits++
		}
	}
	return float64(hits) / float64(len(retrieved))
}

// ReciprocalRank is 1/rank of the first result from an expected source
func ReciprocalRank(retrieved, expected []string) float64 {
	for i, src := range retrieved {
		if containsFold(expected, src) {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// Aggregate averages query scores into the scenario result and sets its status
func Aggregate(res *ScenarioResult) {
	n := float64(len(res.Queries))
	if n == 0 {
		res.Status = "FAIL"
		return
	}

	var recall, context, precision, rr float64
	for _, q := range res.Queries {
		recall += q.SourceRecall
		context += q.ContextRecall
		precision += q.Precision
		rr += q.ReciprocalRank
	}
	res.SourceRecall = recall / n
	res.ContextRecall = context / n
	res.Precision = precision / n
	res.MRR = rr / n

	res.Status = "FAIL"
	if res.ErrorMessage == "" && res.SourceRecall >= PassThreshold && res.ContextRecall >= PassThreshold && res.Precision >= PassThreshold {
		res.Status = "PASS"
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
