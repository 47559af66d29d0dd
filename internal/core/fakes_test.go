// ABOUTME: Test doubles for the retrieval pipeline
// ABOUTME: A deterministic letter-frequency embedder and an in-memory store
package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harper/docrag/internal/models"
)

// letterEmbedder maps text to a 26-dim letter histogram
type letterEmbedder struct {
	calls  atomic.Int64
	failOn func(text string) bool
	dims   int
}

func (e *letterEmbedder) Name() string { return "letters" }

func (e *letterEmbedder) Embed(ctx context.Context, text string) (models.Vector, error) {
	e.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.failOn != nil && e.failOn(text) {
		return nil, errors.New("embedding service unavailable")
	}
	dims := e.dims
	if dims == 0 {
		dims = 26
	}
	v := make(models.Vector, dims)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[int(r-'a')%dims]++
		}
	}
	return v, nil
}

type memStore struct {
	mu      sync.Mutex
	records []models.DocumentRecord
	nextID  int64
	failErr error
	scanErr error
	delay   time.Duration
	active  atomic.Int64
	peak    atomic.Int64
}

func (s *memStore) Insert(ctx context.Context, rec *models.DocumentRecord) (int64, error) {
	cur := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		p := s.peak.Load()
		if cur <= p || s.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.failErr != nil {
		return 0, s.failErr
	}
	rec.ApplyDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	s.records = append(s.records, *rec)
	return rec.ID, nil
}

func (s *memStore) ScanAll(context.Context) ([]models.DocumentRecord, error) {
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DocumentRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *memStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), nil
}

type stubSearcher struct {
	results   []models.SearchResult
	err       error
	lastLimit int
}

func (s *stubSearcher) SearchSimilar(_ context.Context, _ string, limit int) ([]models.SearchResult, error) {
	s.lastLimit = limit
	return s.results, s.err
}

type stubExtractor struct {
	text string
	err  error
}

func (x stubExtractor) ExtractPDF(r io.Reader) (string, error) {
	_, _ = io.ReadAll(r)
	return x.text, x.err
}
