// ABOUTME: Tests for document chunk storage operations
// ABOUTME: Verifies insert, scan order, counting, and concurrent inserts
package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/harper/docrag/internal/models"
)

func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	store := NewDocumentStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDocumentInsertAndScan(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	page := 4
	rec := &models.DocumentRecord{
		Content:     "The quick brown fox.",
		Embedding:   models.Vector{0.1, 0.2, 0.3},
		SourceFile:  "guide.pdf",
		SourceType:  models.SourcePDF,
		ChunkIndex:  1,
		TotalChunks: 3,
		PageNumber:  &page,
		Metadata:    `{"job_id":"abc"}`,
	}

	id, err := store.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if id <= 0 || rec.ID != id {
		t.Fatalf("Insert() id = %d, rec.ID = %d", id, rec.ID)
	}

	records, err := store.ScanAll(ctx)
	if err != nil {
		t.Fatalf("ScanAll() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ScanAll() returned %d records, want 1", len(records))
	}

	got := records[0]
	if got.Content != rec.Content || got.SourceFile != "guide.pdf" || got.SourceType != models.SourcePDF {
		t.Errorf("record fields mismatch: %+v", got)
	}
	if got.ChunkIndex != 1 || got.TotalChunks != 3 || got.Page() != 4 {
		t.Errorf("position fields mismatch: %+v", got)
	}
	if got.Metadata != `{"job_id":"abc"}` {
		t.Errorf("Metadata = %s", got.Metadata)
	}
	if len(got.Embedding) != 3 || got.Embedding[2] != float32(0.3) {
		t.Errorf("Embedding = %v, want [0.1 0.2 0.3]", got.Embedding)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
}

func TestDocumentInsertDefaults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec := &models.DocumentRecord{Content: "manual note", Embedding: models.Vector{1, 0}}
	if _, err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	records, err := store.ScanAll(ctx)
	if err != nil {
		t.Fatalf("ScanAll() error = %v", err)
	}
	got := records[0]
	if got.SourceFile != models.DefaultSourceFile {
		t.Errorf("SourceFile = %s, want %s", got.SourceFile, models.DefaultSourceFile)
	}
	if got.SourceType != models.SourceManual {
		t.Errorf("SourceType = %s, want manual", got.SourceType)
	}
	if got.PageNumber != nil {
		t.Errorf("PageNumber = %v, want nil", *got.PageNumber)
	}
	if got.Metadata != "{}" {
		t.Errorf("Metadata = %s, want {}", got.Metadata)
	}
}

func TestDocumentInsertRejectsEmptyEmbedding(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Insert(context.Background(), &models.DocumentRecord{Content: "x"})
	if err == nil {
		t.Fatal("Insert() should reject a record without an embedding")
	}

	n, _ := store.Count(context.Background())
	if n != 0 {
		t.Errorf("Count() = %d after rejected insert, want 0", n)
	}
}

func TestDocumentScanOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inputs := []struct {
		content string
		created time.Time
	}{
		{"oldest", base},
		{"newest", base.Add(2 * time.Hour)},
		{"tie-a", base.Add(time.Hour)},
		{"tie-b", base.Add(time.Hour)},
	}
	for _, in := range inputs {
		rec := &models.DocumentRecord{Content: in.content, Embedding: models.Vector{1}, CreatedAt: in.created}
		if _, err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s) error = %v", in.content, err)
		}
	}

	records, err := store.ScanAll(ctx)
	if err != nil {
		t.Fatalf("ScanAll() error = %v", err)
	}

	want := []string{"newest", "tie-b", "tie-a", "oldest"}
	for i, w := range want {
		if records[i].Content != w {
			t.Errorf("records[%d] = %s, want %s", i, records[i].Content, w)
		}
	}
}

func TestDocumentIDsMonotonic(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	var last int64
	for i := 0; i < 5; i++ {
		id, err := store.Insert(ctx, &models.DocumentRecord{Content: "dup", Embedding: models.Vector{1}})
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if id <= last {
			t.Errorf("id %d not greater than previous %d", id, last)
		}
		last = id
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 5 {
		t.Errorf("Count() = %d, want 5 (no deduplication)", n)
	}
}

func TestDocumentConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "embeddings.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	store := NewDocumentStore(db)
	defer func() { _ = store.Close() }()

	const workers = 8
	const perWorker = 10

	var wg sync.WaitGroup
	ids := make(chan int64, workers*perWorker)
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := store.Insert(ctx, &models.DocumentRecord{Content: "c", Embedding: models.Vector{1, 2}})
				if err != nil {
					errs <- err
					continue
				}
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Insert() error = %v", err)
	}

	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate id %d", id)
		}
		seen[id] = true
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != workers*perWorker {
		t.Errorf("Count() = %d, want %d", n, workers*perWorker)
	}
}
