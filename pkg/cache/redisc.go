package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache is a cache implementation backed by Redis, used instead of the
// in-process RistrettoCache when the orderbook cache must be shared across
// processes — the matcher and detector may run colocated or split (§5).
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
	ctxTTL time.Duration
}

// RedisConfig holds configuration for the Redis-backed cache.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	OpTimeout  time.Duration // per-operation context timeout; default 500ms
	Logger     *zap.Logger
}

// NewRedisCache dials Redis and verifies connectivity with a PING.
func NewRedisCache(cfg *RedisConfig) (Cache, error) {
	opTimeout := cfg.OpTimeout
	if opTimeout == 0 {
		opTimeout = 500 * time.Millisecond
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	cfg.Logger.Info("redis-cache-connected", zap.String("addr", cfg.Addr))

	return &RedisCache{client: client, logger: cfg.Logger, ctxTTL: opTimeout}, nil
}

// Get retrieves and JSON-decodes a value from Redis. Values are stored as
// opaque JSON, so callers get back a map[string]interface{}-shaped value,
// never the type that was stored; decoding it into that type is up to them.
func (r *RedisCache) Get(key string) (interface{}, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.ctxTTL)
	defer cancel()

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		CacheMissesTotal.Inc()
		return nil, false
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		r.logger.Warn("redis-cache-decode-error", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	CacheHitsTotal.Inc()
	return value, true
}

// Set JSON-encodes and stores value with ttl.
func (r *RedisCache) Set(key string, value interface{}, ttl time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), r.ctxTTL)
	defer cancel()

	raw, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("redis-cache-encode-error", zap.String("key", key), zap.Error(err))
		return false
	}

	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		r.logger.Warn("redis-cache-set-error", zap.String("key", key), zap.Error(err))
		return false
	}

	CacheSetsTotal.Inc()
	return true
}

// Delete removes a key from Redis.
func (r *RedisCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.ctxTTL)
	defer cancel()
	_ = r.client.Del(ctx, key).Err()
	CacheDeletesTotal.Inc()
}

// Clear flushes the current Redis database. Intended for tests only; never
// called from production code paths.
func (r *RedisCache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), r.ctxTTL)
	defer cancel()
	_ = r.client.FlushDB(ctx).Err()
}

// Close closes the underlying Redis client connection.
func (r *RedisCache) Close() {
	_ = r.client.Close()
	r.logger.Info("redis-cache-closed")
}
