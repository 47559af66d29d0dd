package pdf

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Extractor_NormalizesPageBreaks(t *testing.T) {
	x := NewExtractorWith(func(r io.Reader) (string, map[string]string, error) {
		raw, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(raw))
		return "  page one\r\nstill one\fpage two\n", nil, nil
	})

	txt, err := x.ExtractPDF(strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "page one\nstill one\n\npage two", txt)
}

func Test_Extractor_WrapsErrors(t *testing.T) {
	x := NewExtractorWith(func(io.Reader) (string, map[string]string, error) {
		return "", nil, errors.New("pdftotext not found")
	})

	_, err := x.ExtractPDF(strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext not found")
}

func Test_NewExtractor_UsesDocconv(t *testing.T) {
	assert.NotNil(t, NewExtractor().convert)
}
