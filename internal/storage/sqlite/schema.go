// ABOUTME: SQLite database schema for document chunk storage
// ABOUTME: One table of chunks with packed float32 embeddings and provenance
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    content TEXT NOT NULL,
    embedding BLOB NOT NULL,
    dimensions INTEGER NOT NULL,
    source_file TEXT NOT NULL DEFAULT 'manual_entry',
    source_type TEXT NOT NULL DEFAULT 'manual',
    chunk_index INTEGER NOT NULL DEFAULT 0,
    page_number INTEGER,
    total_chunks INTEGER NOT NULL DEFAULT 1,
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source_file, chunk_index);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1

// timeLayout sorts lexically in chronological order
const timeLayout = "2006-01-02 15:04:05.000000000"
