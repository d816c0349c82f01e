package cmd

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/newsquill/newsquill/db"
	"github.com/newsquill/newsquill/internal/config"
	"github.com/newsquill/newsquill/internal/embed"
	"github.com/newsquill/newsquill/internal/index"
	"github.com/newsquill/newsquill/internal/log"
)

// newGeminiClient creates the shared Gemini API client.
func newGeminiClient(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return client, nil
}

// newEmbedder creates the configured embedder.
func newEmbedder(client *genai.Client, cfg *config.Config, logger log.Logger) (embed.Embedder, error) {
	return embed.NewGemini(client, cfg.EmbedderModel, cfg.VectorDim, logger.With("component", "embedder"))
}

// newIndex builds the configured vector index backend and ensures its
// storage exists. The returned cleanup releases backend resources and is
// never nil.
func newIndex(ctx context.Context, cfg *config.Config, logger log.Logger) (index.Index, func(), error) {
	noop := func() {}

	switch cfg.VectorBackend {
	case config.BackendQdrant:
		idx, err := index.NewQdrant(index.QdrantConfig{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.Collection,
		}, logger.With("component", "index"))
		if err != nil {
			return nil, noop, err
		}
		if err := idx.Ensure(ctx, cfg.VectorDim); err != nil {
			return nil, noop, fmt.Errorf("ensuring qdrant collection: %w", err)
		}
		return idx, noop, nil

	case config.BackendPgvector:
		connURL := cfg.PostgresURL()
		if err := db.Migrate(connURL); err != nil {
			return nil, noop, fmt.Errorf("running migrations: %w", err)
		}
		pool, err := index.NewPgxPool(ctx, connURL)
		if err != nil {
			return nil, noop, err
		}
		idx, err := index.NewPgvector(pool, logger.With("component", "index"))
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		if err := idx.Ensure(ctx, cfg.VectorDim); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("verifying pgvector schema: %w", err)
		}
		return idx, pool.Close, nil

	case config.BackendMemory:
		idx := index.NewMemory()
		return idx, noop, nil

	default:
		return nil, noop, fmt.Errorf("%w: %q", config.ErrInvalidVectorBackend, cfg.VectorBackend)
	}
}

// sessionTTL converts the configured TTL to a duration.
func sessionTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.SessionTTL) * time.Second
}
