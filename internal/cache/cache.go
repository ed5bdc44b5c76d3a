// Package cache is the short-lived response cache in front of the
// upstream API. Keys are deterministic hashes of (endpoint, params) so
// concurrent requests for the same resource converge on one entry.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"decktracker/internal/config"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is the key-value contract the upstream client depends on.
// Last-write-wins on concurrent sets is acceptable.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// Key builds the deterministic cache key for an upstream call.
func Key(path, params string) string {
	sum := sha256.Sum256([]byte(path + "?" + params))
	return "api:" + hex.EncodeToString(sum[:])
}

// NewClient connects to the redis instance named in config.
func NewClient(cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	logger.Info().Str("addr", opts.Addr).Msg("connecting to redis")
	return redis.NewClient(opts), nil
}

// NewStore is the Store constructor used by the DI container.
func NewStore(client *redis.Client, logger zerolog.Logger) Store {
	return NewRedis(client, logger)
}

// Redis backs Store with a redis instance.
type Redis struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRedis(client *redis.Client, logger zerolog.Logger) *Redis {
	return &Redis{client: client, logger: logger}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		// A cache outage must not take resolution down with it.
		r.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		return nil, ErrMiss
	}
	return b, nil
}

func (r *Redis) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		return err
	}
	return nil
}
