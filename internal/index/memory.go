package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Memory is an in-process Index using brute-force cosine similarity.
// Intended for tests and local development; everything is lost on restart.
//
// Memory is safe for concurrent use by multiple goroutines.
type Memory struct {
	mu      sync.RWMutex
	dim     int
	records []Record
}

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory { return &Memory{} }

// Ensure implements Index.
func (m *Memory) Ensure(_ context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid dimension %d", dim)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dim != 0 && m.dim != dim {
		return fmt.Errorf("%w (index has %d, config wants %d)", ErrDimensionMismatch, m.dim, dim)
	}
	m.dim = dim
	return nil
}

// Upsert implements Index.
func (m *Memory) Upsert(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := validateRecords(records, m.dim); err != nil {
		return err
	}

	for _, r := range records {
		replaced := false
		for i := range m.records {
			if m.records[i].ID == r.ID {
				m.records[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			m.records = append(m.records, r)
		}
	}
	return nil
}

// Search implements Index.
func (m *Memory) Search(_ context.Context, vector []float32, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 5
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.dim > 0 && len(vector) != m.dim {
		return nil, fmt.Errorf("query vector: %w (got %d, want %d)", ErrDimensionMismatch, len(vector), m.dim)
	}

	hits := make([]Hit, 0, len(m.records))
	for _, r := range m.records {
		hits = append(hits, Hit{Payload: r.Payload, Score: cosine(r.Vector, vector)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Len reports the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// cosine computes cosine similarity without assuming normalized inputs.
func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
