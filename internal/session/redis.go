package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newsquill/newsquill/internal/log"
)

// keyPrefix namespaces session logs inside the Redis keyspace.
const keyPrefix = "chat:"

// RedisConfig configures the Redis session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// TTL is the sliding idle window. Default DefaultTTL.
	TTL time.Duration
}

// Redis stores each session as a Redis list of JSON-encoded turns under
// "chat:<sessionID>", with the TTL refreshed on every append and touch.
//
// Safe for concurrent use.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger log.Logger
}

// NewRedis creates a Redis session store and verifies connectivity.
func NewRedis(ctx context.Context, cfg RedisConfig, logger log.Logger) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}

	return &Redis{client: client, ttl: ttl, logger: logger}, nil
}

// NewRedisWithClient wraps an existing client, for tests.
func NewRedisWithClient(client *redis.Client, ttl time.Duration, logger log.Logger) *Redis {
	if logger == nil {
		logger = log.NewNop()
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Ping verifies Redis connectivity. Used by readiness probes.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}

// Append implements Store.
func (r *Redis) Append(ctx context.Context, sessionID string, turn Turn) error {
	if err := turn.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encoding turn: %w", err)
	}

	key := sessionKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending turn to %s: %w", key, err)
	}

	r.logger.Debug("appended turn", "session_id", sessionID, "role", turn.Role)
	return nil
}

// History implements Store.
func (r *Redis) History(ctx context.Context, sessionID string) ([]Turn, error) {
	key := sessionKey(sessionID)
	entries, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading history of %s: %w", key, err)
	}

	turns := make([]Turn, 0, len(entries))
	for _, entry := range entries {
		var turn Turn
		if err := json.Unmarshal([]byte(entry), &turn); err != nil {
			// A corrupt entry is dropped rather than poisoning the
			// whole conversation.
			r.logger.Warn("skipping undecodable turn", "session_id", sessionID, "error", err)
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Touch implements Store.
func (r *Redis) Touch(ctx context.Context, sessionID string) error {
	if err := r.client.Expire(ctx, sessionKey(sessionID), r.ttl).Err(); err != nil {
		return fmt.Errorf("refreshing ttl of %s: %w", sessionKey(sessionID), err)
	}
	return nil
}

// Reset implements Store.
func (r *Redis) Reset(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	r.logger.Debug("reset session", "session_id", sessionID)
	return nil
}
