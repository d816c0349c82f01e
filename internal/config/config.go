// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.newsquill/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: generation model, embedder model, vector dimension
//   - Index: vector backend selection (qdrant, pgvector, memory)
//   - Sessions: Redis connection and TTL
//   - Ingest: feed list, article cap, fetch pacing, chunking parameters
//   - Server: listen address, rate limiting
//
// Security: secrets are masked in MarshalJSON()/String(). Validation is
// fail-fast: Load() returns an error for an unusable configuration instead
// of deferring the failure to first use.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates GEMINI_API_KEY is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the generation model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidVectorBackend indicates an unknown vector index backend.
	ErrInvalidVectorBackend = errors.New("invalid vector backend")

	// ErrInvalidCollection indicates an empty collection name.
	ErrInvalidCollection = errors.New("invalid collection name")

	// ErrInvalidTopK indicates the retrieval top-K is out of range.
	ErrInvalidTopK = errors.New("invalid top K")

	// ErrInvalidVectorDim indicates a non-positive vector dimension.
	ErrInvalidVectorDim = errors.New("invalid vector dimension")

	// ErrInvalidChunking indicates chunk size/overlap violate overlap < size.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrMissingQdrantURL indicates the qdrant backend is selected without a URL.
	ErrMissingQdrantURL = errors.New("missing qdrant URL")

	// ErrMissingRedisAddr indicates no Redis address is configured.
	ErrMissingRedisAddr = errors.New("missing redis address")

	// ErrInvalidSessionTTL indicates a non-positive session TTL.
	ErrInvalidSessionTTL = errors.New("invalid session TTL")

	// ErrInvalidMaxArticles indicates a non-positive ingestion article cap.
	ErrInvalidMaxArticles = errors.New("invalid max articles")

	// ErrInvalidFetchPacing indicates an unusable fetch timeout or delay.
	ErrInvalidFetchPacing = errors.New("invalid fetch pacing")

	// ErrNoFeeds indicates the ingestion feed list is empty.
	ErrNoFeeds = errors.New("no feeds configured")
)

// Vector index backend identifiers used in Config.VectorBackend.
const (
	BackendQdrant   = "qdrant"
	BackendPgvector = "pgvector"
	BackendMemory   = "memory"
)

const (
	// DefaultGenerationModel matches the reference deployment.
	DefaultGenerationModel = "gemini-2.5-flash"

	// DefaultEmbedderModel is the Gemini embedding model.
	// gemini-embedding-001 outputs 3072 dimensions by default but supports
	// truncation via OutputDimensionality; the index schema uses 768.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultVectorDim is the embedding dimensionality the index is created
	// with. Query-time and ingest-time embeddings must both use it.
	DefaultVectorDim = 768

	// DefaultCollection is the vector collection holding news chunks.
	DefaultCollection = "news_articles"

	// DefaultSessionTTLSeconds is the sliding session expiry (30 minutes).
	DefaultSessionTTLSeconds = 1800
)

// DefaultFeeds are the feeds ingested when none are configured.
var DefaultFeeds = []string{
	"https://www.theguardian.com/world/rss",
	"https://www.theguardian.com/business/rss",
}

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// AI configuration
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	VectorDim     int    `mapstructure:"vector_dim" json:"vector_dim"`

	// Vector index configuration
	VectorBackend string `mapstructure:"vector_backend" json:"vector_backend"`
	Collection    string `mapstructure:"collection" json:"collection"`

	// Qdrant configuration (vector_backend = "qdrant")
	QdrantURL    string `mapstructure:"qdrant_url" json:"qdrant_url"`
	QdrantAPIKey string `mapstructure:"qdrant_api_key" json:"qdrant_api_key"` // SENSITIVE: masked in MarshalJSON

	// PostgreSQL configuration (vector_backend = "pgvector", see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Session store configuration
	RedisAddr     string `mapstructure:"redis_addr" json:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" json:"redis_password"` // SENSITIVE: masked in MarshalJSON
	RedisDB       int    `mapstructure:"redis_db" json:"redis_db"`
	SessionTTL    int    `mapstructure:"session_ttl" json:"session_ttl"` // seconds

	// Ingestion configuration
	Feeds          []string `mapstructure:"feeds" json:"feeds"`
	MaxArticles    int      `mapstructure:"max_articles" json:"max_articles"`
	FetchTimeoutMS int      `mapstructure:"fetch_timeout_ms" json:"fetch_timeout_ms"`
	FetchDelayMS   int      `mapstructure:"fetch_delay_ms" json:"fetch_delay_ms"`
	ChunkSize      int      `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap   int      `mapstructure:"chunk_overlap" json:"chunk_overlap"`

	// Retrieval configuration
	TopK int `mapstructure:"top_k" json:"top_k"`

	// Server configuration
	ListenAddr    string  `mapstructure:"listen_addr" json:"listen_addr"`
	RatePerSecond float64 `mapstructure:"rate_per_second" json:"rate_per_second"`
	RateBurst     int     `mapstructure:"rate_burst" json:"rate_burst"`
	TrustProxy    bool    `mapstructure:"trust_proxy" json:"trust_proxy"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".newsquill")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// REDIS_URL and DATABASE_URL override individual settings when set.
	if err := cfg.parseRedisURL(); err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("model_name", DefaultGenerationModel)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("vector_dim", DefaultVectorDim)

	// Index defaults
	v.SetDefault("vector_backend", BackendQdrant)
	v.SetDefault("collection", DefaultCollection)
	v.SetDefault("qdrant_url", "http://localhost:6333")

	// PostgreSQL defaults (pgvector backend)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "newsquill")
	v.SetDefault("postgres_password", "newsquill_dev_password")
	v.SetDefault("postgres_db_name", "newsquill")
	v.SetDefault("postgres_ssl_mode", "disable")

	// Session defaults
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("session_ttl", DefaultSessionTTLSeconds)

	// Ingestion defaults
	v.SetDefault("feeds", DefaultFeeds)
	v.SetDefault("max_articles", 50)
	v.SetDefault("fetch_timeout_ms", 15000)
	v.SetDefault("fetch_delay_ms", 1000)
	v.SetDefault("chunk_size", 600)
	v.SetDefault("chunk_overlap", 100)

	// Retrieval defaults
	v.SetDefault("top_k", 5)

	// Server defaults
	v.SetDefault("listen_addr", "127.0.0.1:3400")
	v.SetDefault("rate_per_second", 5.0)
	v.SetDefault("rate_burst", 10)
	v.SetDefault("trust_proxy", false)
}

// bindEnvVariables binds environment variables explicitly.
// GEMINI_API_KEY is read directly by the genai client, not via viper;
// its presence is checked in Validate().
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a failure here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("vector_backend", "NEWSQUILL_VECTOR_BACKEND")
	mustBind("qdrant_url", "QDRANT_URL")
	mustBind("qdrant_api_key", "QDRANT_KEY")
	mustBind("redis_addr", "NEWSQUILL_REDIS_ADDR")
	mustBind("redis_password", "NEWSQUILL_REDIS_PASSWORD")
	mustBind("listen_addr", "NEWSQUILL_ADDR")
	mustBind("model_name", "NEWSQUILL_MODEL_NAME")
	mustBind("trust_proxy", "NEWSQUILL_TRUST_PROXY")
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Short secrets are fully
// masked; longer ones keep the first and last two characters for debugging.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.QdrantAPIKey = maskSecret(a.QdrantAPIKey)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	a.RedisPassword = maskSecret(a.RedisPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// GeminiAPIKey returns the Gemini API key from the environment.
func (c *Config) GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}
