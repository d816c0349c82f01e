package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/newsquill/newsquill/internal/log"
)

// Pgvector is an Index backed by PostgreSQL + pgvector.
//
// The chunks table is created by the embedded migrations (db package); Ensure
// verifies the column dimensionality against the configured one.
//
// Pgvector is safe for concurrent use by multiple goroutines.
type Pgvector struct {
	pool   *pgxpool.Pool
	dim    int
	logger log.Logger
}

// NewPgxPool creates a pgx connection pool with pgvector type support.
func NewPgxPool(ctx context.Context, connURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres URL: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// NewPgvector creates a pgvector-backed index over an existing pool.
func NewPgvector(pool *pgxpool.Pool, logger log.Logger) (*Pgvector, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pgvector{pool: pool, logger: logger}, nil
}

// Ensure verifies the chunks table exists with the expected vector size.
// For the vector type, atttypmod carries the declared dimensionality.
func (p *Pgvector) Ensure(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid dimension %d", dim)
	}
	p.dim = dim

	var typmod int
	err := p.pool.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute
		 WHERE attrelid = 'chunks'::regclass AND attname = 'embedding'`,
	).Scan(&typmod)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("chunks table has no embedding column; run migrations")
		}
		return fmt.Errorf("inspecting chunks schema (did migrations run?): %w", err)
	}
	if typmod != dim {
		return fmt.Errorf("chunks.embedding: %w (schema has %d, config wants %d)",
			ErrDimensionMismatch, typmod, dim)
	}
	return nil
}

// Upsert implements Index.
func (p *Pgvector) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := validateRecords(records, p.dim); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(
			`INSERT INTO chunks (id, embedding, title, url, content)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE
			 SET embedding = EXCLUDED.embedding,
			     title = EXCLUDED.title,
			     url = EXCLUDED.url,
			     content = EXCLUDED.content`,
			r.ID, pgvector.NewVector(r.Vector), r.Payload.Title, r.Payload.URL, r.Payload.Content,
		)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer func() {
		if err := results.Close(); err != nil {
			p.logger.Debug("closing batch results", "error", err)
		}
	}()

	for i := 0; i < len(records); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting record %s: %w", records[i].ID, err)
		}
	}
	return nil
}

// Search implements Index. Cosine similarity is 1 minus the cosine distance
// operator, so ordering by distance ascending yields descending scores.
func (p *Pgvector) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := p.pool.Query(ctx,
		`SELECT title, url, content, 1 - (embedding <=> $1) AS score
		 FROM chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(vector), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Payload.Title, &h.Payload.URL, &h.Payload.Content, &h.Score); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}
	return hits, nil
}
