// ABOUTME: Vector store contract and backend selection
// ABOUTME: Opens SQLite or Charm KV storage from configuration
package storage

import (
	"context"
	"fmt"

	"github.com/harper/docrag/internal/charm"
	"github.com/harper/docrag/internal/config"
	"github.com/harper/docrag/internal/models"
	"github.com/harper/docrag/internal/storage/sqlite"
)

// VectorStore persists document records and hands them back for exhaustive ranking
type VectorStore interface {
	Insert(ctx context.Context, rec *models.DocumentRecord) (int64, error)
	ScanAll(ctx context.Context) ([]models.DocumentRecord, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

var (
	_ VectorStore = (*sqlite.DocumentStore)(nil)
	_ VectorStore = (*KVStore)(nil)
)

// Open returns the store selected by cfg.Backend
func Open(cfg config.StorageConfig) (VectorStore, error) {
	switch cfg.Backend {
	case config.StoreSQLite, "":
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return sqlite.NewDocumentStore(db), nil
	case config.StoreCharm:
		client, err := charm.NewClient(charm.Config{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDBName,
			AutoSync: cfg.AutoSync,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open charm store: %w", err)
		}
		return NewKVStore(client), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
