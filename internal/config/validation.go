package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	// 1. API key (required for embedding and generation)
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// 2. Vector index configuration. A dimension mismatch between embedder
	// and index is a fatal configuration error, so the dimension is pinned
	// here and handed to both.
	if c.VectorDim <= 0 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidVectorDim, c.VectorDim)
	}

	validBackends := []string{BackendQdrant, BackendPgvector, BackendMemory}
	if !slices.Contains(validBackends, c.VectorBackend) {
		return fmt.Errorf("%w: %q (valid: %v)", ErrInvalidVectorBackend, c.VectorBackend, validBackends)
	}

	switch c.VectorBackend {
	case BackendQdrant:
		if c.QdrantURL == "" {
			return fmt.Errorf("%w: qdrant_url is required for the qdrant backend", ErrMissingQdrantURL)
		}
	case BackendPgvector:
		if c.PostgresHost == "" || c.PostgresDBName == "" {
			return fmt.Errorf("%w: postgres_host and postgres_db_name are required for the pgvector backend",
				ErrInvalidVectorBackend)
		}
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			return fmt.Errorf("%w: postgres_port must be between 1 and 65535, got %d",
				ErrInvalidVectorBackend, c.PostgresPort)
		}
		if c.PostgresPassword == "newsquill_dev_password" {
			slog.Warn("using default development password for PostgreSQL",
				"warning", "change postgres_password for production deployments")
		}
	}

	if c.Collection == "" {
		return fmt.Errorf("%w: collection cannot be empty", ErrInvalidCollection)
	}

	// 3. Session store
	if c.RedisAddr == "" {
		return fmt.Errorf("%w: redis_addr is required", ErrMissingRedisAddr)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: must be positive seconds, got %d", ErrInvalidSessionTTL, c.SessionTTL)
	}

	// 4. Ingestion. overlap >= size would make the chunker advance by a
	// non-positive step and never terminate.
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must satisfy 0 <= overlap < chunk_size, got %d/%d",
			ErrInvalidChunking, c.ChunkOverlap, c.ChunkSize)
	}
	if c.MaxArticles <= 0 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidMaxArticles, c.MaxArticles)
	}
	if len(c.Feeds) == 0 {
		return fmt.Errorf("%w: at least one feed URL is required", ErrNoFeeds)
	}
	if c.FetchTimeoutMS <= 0 {
		return fmt.Errorf("%w: fetch_timeout_ms must be positive, got %d", ErrInvalidFetchPacing, c.FetchTimeoutMS)
	}
	if c.FetchDelayMS < 0 {
		return fmt.Errorf("%w: fetch_delay_ms cannot be negative, got %d", ErrInvalidFetchPacing, c.FetchDelayMS)
	}

	// 5. Retrieval
	if c.TopK <= 0 || c.TopK > 50 {
		return fmt.Errorf("%w: top_k must be between 1 and 50, got %d", ErrInvalidTopK, c.TopK)
	}

	return nil
}
