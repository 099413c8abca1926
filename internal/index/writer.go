// Package index persists generated documentation and its embeddings in a
// local vector database, keyed by element identity so repeated writes are
// idempotent.
package index

import "context"

// Record is a single documentation entry to store in the index.
type Record struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Filter selects records by exact metadata match. All entries must match.
type Filter map[string]any

// Writer stores documentation records and removes stale ones.
type Writer interface {
	// Upsert inserts or replaces the given records. Records sharing an
	// element identity with an existing entry replace it.
	Upsert(ctx context.Context, records []Record) error

	// Delete removes all records matching the filter.
	Delete(ctx context.Context, filter Filter) error

	Close() error
}
