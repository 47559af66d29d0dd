// ABOUTME: Vector store over a key-value backend such as Charm KV
// ABOUTME: Records are JSON under zero-padded document keys with a sequence counter
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/harper/docrag/internal/charm"
	"github.com/harper/docrag/internal/models"
)

// Key layout
const (
	DocumentPrefix = "document:"
	SequenceKey    = "meta:document_seq"
)

// KV is the subset of a key-value client the store needs.
// Get must return charm.ErrNotFound for a missing key.
type KV interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	ListKeys(prefix string) ([]string, error)
}

// KVStore implements VectorStore on a KV backend
type KVStore struct {
	kv     KV
	mu     sync.Mutex
	seq    int64
	loaded bool
}

// NewKVStore creates a store over kv
func NewKVStore(kv KV) *KVStore {
	return &KVStore{kv: kv}
}

// DocumentKey returns the key for a record id; padding keeps keys in id order
func DocumentKey(id int64) string {
	return fmt.Sprintf("%s%020d", DocumentPrefix, id)
}

// loadSeq recovers the counter from the stored value or the highest key seen
func (s *KVStore) loadSeq() error {
	if s.loaded {
		return nil
	}

	var seq int64
	raw, err := s.kv.Get(SequenceKey)
	switch {
	case err == nil:
		if n, perr := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64); perr == nil {
			seq = n
		}
	case errors.Is(err, charm.ErrNotFound):
	default:
		return fmt.Errorf("failed to read sequence: %w", err)
	}

	keys, err := s.kv.ListKeys(DocumentPrefix)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	for _, k := range keys {
		if n, perr := strconv.ParseInt(strings.TrimPrefix(k, DocumentPrefix), 10, 64); perr == nil && n > seq {
			seq = n
		}
	}

	s.seq = seq
	s.loaded = true
	return nil
}

// Insert stores rec under the next id and returns it
func (s *KVStore) Insert(ctx context.Context, rec *models.DocumentRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := rec.Embedding.Validate(); err != nil {
		return 0, fmt.Errorf("refusing to store record: %w", err)
	}
	rec.ApplyDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadSeq(); err != nil {
		return 0, err
	}

	id := s.seq + 1
	rec.ID = id
	data, err := json.Marshal(rec)
	if err != nil {
		rec.ID = 0
		return 0, fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := s.kv.Set(DocumentKey(id), data); err != nil {
		rec.ID = 0
		return 0, fmt.Errorf("failed to store document: %w", err)
	}
	s.seq = id

	// The key itself is authoritative if this write is lost
	_ = s.kv.Set(SequenceKey, []byte(strconv.FormatInt(id, 10)))

	return id, nil
}

// ScanAll returns every stored record, newest first
func (s *KVStore) ScanAll(ctx context.Context) ([]models.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.ListKeys(DocumentPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	records := make([]models.DocumentRecord, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.kv.Get(key)
		if errors.Is(err, charm.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		var rec models.DocumentRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		records = append(records, rec)
	}

	slices.SortFunc(records, func(a, b models.DocumentRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	return records, nil
}

// Count returns the number of stored records
func (s *KVStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.ListKeys(DocumentPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list documents: %w", err)
	}
	return len(keys), nil
}

// Close closes the backend when it supports closing
func (s *KVStore) Close() error {
	if c, ok := s.kv.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
