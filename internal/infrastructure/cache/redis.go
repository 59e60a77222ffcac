package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/cornell-dti/o-week-android-sub000/pkg/config"
	"github.com/cornell-dti/o-week-android-sub000/pkg/logger"
)

// Custom error types
var (
	ErrCacheNotFound   = errors.New("cache: key not found")
	ErrCacheConnection = errors.New("cache: connection error")
)

// Config holds the configuration for the Redis client
type Config struct {
	Addr             string
	Password         string
	DB               int
	OperationTimeout time.Duration
	DefaultTTL       time.Duration
	KeyPrefix        string
}

// NewConfigFromEnv creates a Redis config from project configuration
func NewConfigFromEnv(cfg *config.Config) *Config {
	return &Config{
		Addr:             fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:         cfg.Redis.Password,
		DB:               cfg.Redis.DB,
		OperationTimeout: 2 * time.Second,
		DefaultTTL:       5 * time.Minute,
		KeyPrefix:        "oweek:",
	}
}

// RedisClient is a thin cache wrapper used to cache day listings. Cache
// misses and cache failures are equivalent: callers fall through to the
// store.
type RedisClient struct {
	client *redis.Client
	cfg    *Config
	logger *logger.Logger
}

// NewRedisClient connects and pings the configured Redis instance.
func NewRedisClient(cfg *Config, log *logger.Logger) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return &RedisClient{client: client, cfg: cfg, logger: log}, nil
}

func (r *RedisClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.cfg.OperationTimeout)
}

// Get fetches a cached value. Returns ErrCacheNotFound on a miss.
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	val, err := r.client.Get(ctx, r.cfg.KeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return val, nil
}

// Set stores a value under the key. A zero ttl uses the default TTL.
func (r *RedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if ttl <= 0 {
		ttl = r.cfg.DefaultTTL
	}
	if err := r.client.Set(ctx, r.cfg.KeyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return nil
}

// Delete removes keys from the cache.
func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.cfg.KeyPrefix + k
	}
	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return nil
}

// ClearByPattern removes every key matching the pattern (relative to the
// key prefix). Used to drop all day listings after a sync.
func (r *RedisClient) ClearByPattern(ctx context.Context, pattern string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	iter := r.client.Scan(ctx, 0, r.cfg.KeyPrefix+pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	r.logger.Debug("Cache cleared by pattern",
		zap.String("pattern", pattern),
		zap.Int("keys", len(keys)),
	)
	return nil
}

// HealthCheck pings the Redis instance.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying connection.
func (r *RedisClient) Close() error {
	return r.client.Close()
}
