// ABOUTME: PDF text extraction backed by docconv
// ABOUTME: Produces plain text for the bulk indexer from raw PDF bytes
package pdf

import (
	"fmt"
	"io"
	"strings"

	"code.sajari.com/docconv/v2"
)

// ConvertFunc converts a PDF stream to text and metadata
type ConvertFunc func(r io.Reader) (string, map[string]string, error)

// Extractor pulls text out of PDF documents
type Extractor struct {
	convert ConvertFunc
}

// NewExtractor returns an Extractor using docconv (needs pdftotext on PATH)
func NewExtractor() *Extractor {
	return &Extractor{convert: docconv.ConvertPDF}
}

// NewExtractorWith returns an Extractor using a custom converter
func NewExtractorWith(fn ConvertFunc) *Extractor {
	return &Extractor{convert: fn}
}

// ExtractPDF returns the document body with form feeds turned into paragraph breaks
func (x *Extractor) ExtractPDF(r io.Reader) (string, error) {
	body, _, err := x.convert(r)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf document: %w", err)
	}
	return normalize(body), nil
}

// normalize keeps page breaks as paragraph breaks so the chunker can cut there
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "\n\n")
	return strings.TrimSpace(s)
}
