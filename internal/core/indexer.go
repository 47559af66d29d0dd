// ABOUTME: Write-side pipeline: single saves and bulk chunk indexing
// ABOUTME: Bulk jobs embed and store chunks across a bounded worker pool
package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harper/docrag/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultFilename is used when an indexing request names no file
const DefaultFilename = "document.txt"

// MaxWorkersLimit caps the worker pool size
const MaxWorkersLimit = 64

// Job states, logged as a job moves through the pipeline
const (
	JobChunking    = "chunking"
	JobDispatching = "dispatching"
	JobCompleted   = "completed"
)

// IndexParams controls chunking and concurrency for a bulk job
type IndexParams struct {
	ChunkSize    int
	ChunkOverlap int
	MaxWorkers   int
}

// DefaultIndexParams returns 1000/200 with 4 workers
func DefaultIndexParams() IndexParams {
	return IndexParams{ChunkSize: 1000, ChunkOverlap: 200, MaxWorkers: 4}
}

// IsZero reports whether no parameter was set
func (p IndexParams) IsZero() bool {
	return p == IndexParams{}
}

// Validate checks the parameter combination
func (p IndexParams) Validate() error {
	if p.ChunkSize <= 0 {
		return validationf("chunk_size must be positive, got %d", p.ChunkSize)
	}
	if p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		return validationf("chunk_overlap must be in [0, %d), got %d", p.ChunkSize, p.ChunkOverlap)
	}
	if p.MaxWorkers <= 0 || p.MaxWorkers > MaxWorkersLimit {
		return validationf("max_workers must be in [1, %d], got %d", MaxWorkersLimit, p.MaxWorkers)
	}
	return nil
}

// SaveRequest describes one document to embed and store as-is
type SaveRequest struct {
	Content     string
	SourceFile  string
	SourceType  models.SourceType
	ChunkIndex  int
	TotalChunks int
	PageNumber  *int
	Metadata    map[string]any
}

// SaveResult reports the stored id and embedding size
type SaveResult struct {
	ID         int64
	Dimensions int
}

// IndexRequest describes a bulk indexing job
type IndexRequest struct {
	Text       string
	Filename   string
	SourceType models.SourceType
	PageNumber *int
	Params     IndexParams
	Metadata   map[string]any
}

// Indexer writes documents into a store
type Indexer struct {
	embedder  Embedder
	store     DocumentStore
	chunker   *Chunker
	defaults  IndexParams
	extractor TextExtractor
	logger    *log.Logger
}

// IndexerOption customizes an Indexer
type IndexerOption func(*Indexer)

// WithExtractor enables PDF indexing
func WithExtractor(x TextExtractor) IndexerOption {
	return func(ix *Indexer) {
		ix.extractor = x
	}
}

// NewIndexer creates an Indexer. Zero defaults fall back to DefaultIndexParams.
func NewIndexer(emb Embedder, store DocumentStore, defaults IndexParams, logger *log.Logger, opts ...IndexerOption) *Indexer {
	if defaults.IsZero() {
		defaults = DefaultIndexParams()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ix := &Indexer{
		embedder: emb,
		store:    store,
		chunker:  NewChunker(),
		defaults: defaults,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Defaults returns the parameters used for requests that set none
func (ix *Indexer) Defaults() IndexParams {
	return ix.defaults
}

// SaveDocument embeds and stores one document. An embedding failure stores nothing.
func (ix *Indexer) SaveDocument(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, validationf("content is required")
	}
	if req.SourceType != "" {
		if _, err := models.ParseSourceType(string(req.SourceType)); err != nil {
			return nil, validationf("%v", err)
		}
	}
	if req.ChunkIndex < 0 {
		return nil, validationf("chunk_index must not be negative, got %d", req.ChunkIndex)
	}
	metadata, err := encodeMetadata(req.Metadata)
	if err != nil {
		return nil, err
	}

	vec, err := ix.embedder.Embed(ctx, req.Content)
	if err != nil {
		return nil, embeddingErr(err)
	}

	rec := &models.DocumentRecord{
		Content:     req.Content,
		Embedding:   vec,
		SourceFile:  req.SourceFile,
		SourceType:  req.SourceType,
		ChunkIndex:  req.ChunkIndex,
		TotalChunks: req.TotalChunks,
		PageNumber:  req.PageNumber,
		Metadata:    metadata,
	}
	id, err := ix.store.Insert(ctx, rec)
	if err != nil {
		return nil, storageErr(err)
	}

	ix.logger.Info("saved document", "id", id, "source_file", rec.SourceFile, "dimensions", len(vec))
	return &SaveResult{ID: id, Dimensions: len(vec)}, nil
}

// IndexText chunks text and stores every chunk using a bounded worker pool.
// A failed chunk is counted and recorded; it never aborts the job.
func (ix *Indexer) IndexText(ctx context.Context, req IndexRequest) (*models.IndexingJobResult, error) {
	started := time.Now()

	if strings.TrimSpace(req.Text) == "" {
		return nil, validationf("text is required")
	}
	params := req.Params
	if params.IsZero() {
		params = ix.defaults
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	filename := req.Filename
	if strings.TrimSpace(filename) == "" {
		filename = DefaultFilename
	}
	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = models.SourceTypeForFilename(filename)
	}

	jobID := uuid.NewString()
	logger := ix.logger.With("job_id", jobID, "filename", filename)

	meta := make(map[string]any, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		meta[k] = v
	}
	meta["job_id"] = jobID
	metadata, err := encodeMetadata(meta)
	if err != nil {
		return nil, err
	}

	logger.Info("indexing job", "state", JobChunking, "characters", utf8.RuneCountInString(req.Text))
	chunks, err := ix.chunker.Chunk(req.Text, params.ChunkSize, params.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	result := &models.IndexingJobResult{
		JobID:           jobID,
		Filename:        filename,
		TotalChunks:     len(chunks),
		FailedIndexes:   []int{},
		TotalCharacters: utf8.RuneCountInString(req.Text),
		ChunkSize:       params.ChunkSize,
		ChunkOverlap:    params.ChunkOverlap,
	}

	if len(chunks) > 0 {
		workers := min(params.MaxWorkers, len(chunks))
		logger.Info("indexing job", "state", JobDispatching, "chunks", len(chunks), "workers", workers)

		var (
			saved, failed atomic.Int64
			mu            sync.Mutex
			g             errgroup.Group
		)
		g.SetLimit(workers)

		for _, ch := range chunks {
			g.Go(func() error {
				rec := &models.DocumentRecord{
					Content:     ch.Content,
					SourceFile:  filename,
					SourceType:  sourceType,
					ChunkIndex:  ch.Index,
					TotalChunks: ch.Total,
					PageNumber:  req.PageNumber,
					Metadata:    metadata,
				}
				if err := ix.storeChunk(ctx, rec); err != nil {
					failed.Add(1)
					mu.Lock()
					result.FailedIndexes = append(result.FailedIndexes, ch.Index)
					mu.Unlock()
					logger.Warn("chunk failed", "chunk_index", ch.Index, "error", err)
					return nil
				}
				saved.Add(1)
				logger.Debug("chunk saved", "chunk_index", ch.Index, "id", rec.ID)
				return nil
			})
		}
		_ = g.Wait()

		slices.Sort(result.FailedIndexes)
		result.ChunksSaved = int(saved.Load())
		result.ChunksFailed = int(failed.Load())
	}

	result.Elapsed = time.Since(started)
	if result.TotalChunks > 0 {
		result.AveragePerChunk = result.Elapsed / time.Duration(result.TotalChunks)
	}

	logger.Info("indexing job", "state", JobCompleted,
		"saved", result.ChunksSaved, "failed", result.ChunksFailed, "elapsed", result.Elapsed)
	return result, nil
}

func (ix *Indexer) storeChunk(ctx context.Context, rec *models.DocumentRecord) error {
	vec, err := ix.embedder.Embed(ctx, rec.Content)
	if err != nil {
		return embeddingErr(err)
	}
	rec.Embedding = vec
	if _, err := ix.store.Insert(ctx, rec); err != nil {
		return storageErr(err)
	}
	return nil
}

// IndexPDF extracts text from a PDF and indexes it as a pdf source
func (ix *Indexer) IndexPDF(ctx context.Context, data []byte, req IndexRequest) (*models.IndexingJobResult, error) {
	if ix.extractor == nil {
		return nil, fmt.Errorf("pdf indexing is not configured")
	}
	if len(data) == 0 {
		return nil, validationf("pdf content is required")
	}

	text, err := ix.extractor.ExtractPDF(bytes.NewReader(data))
	if err != nil {
		return nil, validationf("failed to extract pdf text: %v", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, validationf("pdf contains no extractable text")
	}

	if strings.TrimSpace(req.Filename) == "" {
		req.Filename = "document.pdf"
	}
	req.Text = text
	req.SourceType = models.SourcePDF
	return ix.IndexText(ctx, req)
}

func encodeMetadata(meta map[string]any) (string, error) {
	if len(meta) == 0 {
		return models.EmptyMetadata, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", validationf("metadata is not serializable: %v", err)
	}
	return string(data), nil
}
