// ABOUTME: Citation formatting and per-source summaries for search results
// ABOUTME: Supports English and Russian wording with a fixed citation structure
package core

import (
	"fmt"
	"strings"

	"github.com/harper/docrag/internal/models"
)

type citationWords struct {
	page    string
	chunk   string
	unknown string
	plural  func(n int) string
}

var citationLanguages = map[string]citationWords{
	"en": {
		page:    "p.",
		chunk:   "chunk",
		unknown: "[unknown source]",
		plural: func(n int) string {
			if n == 1 {
				return "chunk"
			}
			return "chunks"
		},
	},
	"ru": {
		page:    "стр.",
		chunk:   "фрагмент",
		unknown: "[unknown source]",
		plural:  russianFragments,
	},
}

// russianFragments picks the noun form used for a fragment count
func russianFragments(n int) string {
	switch {
	case n == 1:
		return "фрагмент"
	case n < 5:
		return "фрагмента"
	default:
		return "фрагментов"
	}
}

// CitationFormatter renders citations in one language
type CitationFormatter struct {
	lang  string
	words citationWords
}

// NewCitationFormatter returns a formatter for lang; unknown languages use English
func NewCitationFormatter(lang string) *CitationFormatter {
	lang = strings.ToLower(strings.TrimSpace(lang))
	words, ok := citationLanguages[lang]
	if !ok {
		lang = "en"
		words = citationLanguages[lang]
	}
	return &CitationFormatter{lang: lang, words: words}
}

// Language returns the active language code
func (f *CitationFormatter) Language() string {
	return f.lang
}

// Format renders "[source, p. N, chunk i/T]"; the page part needs a positive
// page and the chunk part needs more than one chunk.
func (f *CitationFormatter) Format(rec models.DocumentRecord) string {
	if rec.SourceFile == "" || rec.SourceFile == models.UnknownSourceFile {
		return f.words.unknown
	}

	parts := []string{rec.SourceFile}
	if page := rec.Page(); page > 0 {
		parts = append(parts, fmt.Sprintf("%s %d", f.words.page, page))
	}
	if rec.TotalChunks > 1 {
		parts = append(parts, fmt.Sprintf("%s %d/%d", f.words.chunk, rec.ChunkIndex+1, rec.TotalChunks))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Info returns the structured citation for rec
func (f *CitationFormatter) Info(rec models.DocumentRecord) *models.CitationInfo {
	source := rec.SourceFile
	if source == "" {
		source = models.UnknownSourceFile
	}
	sourceType := rec.SourceType
	if sourceType == "" {
		sourceType = models.SourceManual
	}
	total := rec.TotalChunks
	if total <= 0 {
		total = 1
	}
	return &models.CitationInfo{
		SourceFile:  source,
		SourceType:  sourceType,
		ChunkIndex:  rec.ChunkIndex,
		PageNumber:  rec.PageNumber,
		TotalChunks: total,
		Formatted:   f.Format(rec),
	}
}

// Annotate sets the citation fields on r
func (f *CitationFormatter) Annotate(r *models.SearchResult) {
	r.Citation = f.Format(r.Record)
	r.CitationInfo = f.Info(r.Record)
}

// SourcesSummary counts results per source file in first-appearance order,
// e.g. "guide.pdf (2 chunks)".
func (f *CitationFormatter) SourcesSummary(results []models.SearchResult) []string {
	var order []string
	counts := make(map[string]int)
	for _, r := range results {
		src := r.Record.SourceFile
		if src == "" {
			src = models.UnknownSourceFile
		}
		if counts[src] == 0 {
			order = append(order, src)
		}
		counts[src]++
	}

	summary := make([]string, 0, len(order))
	for _, src := range order {
		n := counts[src]
		summary = append(summary, fmt.Sprintf("%s (%d %s)", src, n, f.words.plural(n)))
	}
	return summary
}
