// Package index provides the vector index abstraction used for similarity
// search over news chunks.
//
// Three backends implement Index:
//   - Qdrant: REST client against a Qdrant collection (reference deployment)
//   - Pgvector: PostgreSQL + pgvector
//   - Memory: in-process brute-force cosine search, for tests and local runs
//
// All backends store (id, vector, payload) records with cosine similarity
// ranking. The collection is created with a fixed vector size; feeding it a
// different dimensionality is a configuration error surfaced by Ensure, not
// a runtime condition to recover from.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrDimensionMismatch indicates the index exists with a different vector
// size than configured. Fatal at startup; re-create the collection or fix
// the embedder configuration.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Payload is the metadata stored alongside each vector. Content holds the
// chunk text itself; retrieval reads it back without touching the source.
type Payload struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Record is one indexed chunk. Records are created on upsert and never
// mutated; re-ingestion writes new records under fresh IDs.
type Record struct {
	ID      uuid.UUID
	Vector  []float32
	Payload Payload
}

// Hit is one search result, ranked by descending similarity score.
type Hit struct {
	Payload Payload
	Score   float32
}

// Index stores vector records and answers nearest-neighbor queries.
type Index interface {
	// Ensure creates the collection if missing with the given vector size,
	// and fails with ErrDimensionMismatch if it exists with another size.
	Ensure(ctx context.Context, dim int) error

	// Upsert writes records. Records with the same ID are overwritten.
	Upsert(ctx context.Context, records []Record) error

	// Search returns up to limit hits ranked by descending similarity.
	Search(ctx context.Context, vector []float32, limit int) ([]Hit, error)
}

// validateRecords rejects obviously malformed batches before they reach a
// remote store.
func validateRecords(records []Record, dim int) error {
	for i, r := range records {
		if r.ID == uuid.Nil {
			return fmt.Errorf("record %d: missing ID", i)
		}
		if dim > 0 && len(r.Vector) != dim {
			return fmt.Errorf("record %d: %w (got %d, want %d)", i, ErrDimensionMismatch, len(r.Vector), dim)
		}
	}
	return nil
}
