package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// filterColumns are the metadata keys Delete accepts as filter criteria.
var filterColumns = map[string]bool{
	"file_path": true,
	"element":   true,
	"kind":      true,
	"parent":    true,
	"version":   true,
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT NOT NULL,
	collection TEXT NOT NULL,
	file_path  TEXT NOT NULL,
	element    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	parent     TEXT NOT NULL DEFAULT '',
	line       INTEGER NOT NULL DEFAULT 0,
	version    TEXT NOT NULL DEFAULT '',
	text       TEXT NOT NULL,
	vector     BLOB,
	updated_at TEXT NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (collection, file_path, element, kind, parent)
);
CREATE INDEX IF NOT EXISTS idx_documents_file_path ON documents (collection, file_path);
`

// SQLiteWriter implements Writer on a local SQLite database. When an Embedder
// is configured, each record's text is embedded and the vector stored
// alongside it.
type SQLiteWriter struct {
	db         *sql.DB
	collection string
	embedder   Embedder
}

// NewSQLiteWriter opens (creating if necessary) the database at path and
// prepares the documents table. embedder may be nil to store text only.
func NewSQLiteWriter(path, collection string, embedder Embedder) (*SQLiteWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// SQLite benefits from a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteWriter{db: db, collection: collection, embedder: embedder}, nil
}

// Upsert inserts or replaces documentation records. Identity is derived from
// the record metadata (file_path, element, kind, parent), so re-running an
// upsert for the same elements overwrites rather than duplicates.
func (w *SQLiteWriter) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	vectors, err := w.embedAll(ctx, records)
	if err != nil {
		return err
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO documents
			(id, collection, file_path, element, kind, parent, line, version, text, vector, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}

		var vector []byte
		if vectors != nil {
			vector = serializeVector(vectors[i])
		}

		_, err := stmt.ExecContext(ctx,
			id,
			w.collection,
			metaString(rec.Metadata, "file_path"),
			metaString(rec.Metadata, "element"),
			metaString(rec.Metadata, "kind"),
			metaString(rec.Metadata, "parent"),
			metaInt(rec.Metadata, "line"),
			metaString(rec.Metadata, "version"),
			rec.Text,
			vector,
		)
		if err != nil {
			return fmt.Errorf("upserting record %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// Delete removes records matching the filter. Unknown filter keys are
// rejected rather than ignored so a typo cannot silently delete too much or
// too little.
func (w *SQLiteWriter) Delete(ctx context.Context, filter Filter) error {
	if len(filter) == 0 {
		return fmt.Errorf("refusing to delete with empty filter")
	}

	where := []string{"collection = ?"}
	args := []any{w.collection}
	for key, value := range filter {
		if !filterColumns[key] {
			return fmt.Errorf("unsupported filter key: %q", key)
		}
		where = append(where, key+" = ?")
		args = append(args, value)
	}

	query := "DELETE FROM documents WHERE " + strings.Join(where, " AND ")
	if _, err := w.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

func (w *SQLiteWriter) embedAll(ctx context.Context, records []Record) ([][]float32, error) {
	if w.embedder == nil {
		return nil, nil
	}
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}
	vectors, err := w.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding records: %w", err)
	}
	if len(vectors) != len(records) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d records", len(vectors), len(records))
	}
	return vectors, nil
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// serializeVector converts a float32 slice to a little-endian byte blob.
func serializeVector(vector []float32) []byte {
	if len(vector) == 0 {
		return nil
	}
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice.
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}
