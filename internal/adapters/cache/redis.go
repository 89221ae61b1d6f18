package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/okian/reelsim/pkg/logger"
	"github.com/okian/reelsim/pkg/metrics"
)

const (
	defaultTTL     = 10 * time.Minute
	connectTimeout = 5 * time.Second
)

// RedisCache stores JSON-encoded results in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
	closed atomic.Bool
}

// NewRedis connects to the Redis server at addr and verifies it answers.
func NewRedis(ctx context.Context, addr, password string, db int, opts ...Option) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  connectTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	c := &RedisCache{
		client: client,
		ttl:    defaultTTL,
		logger: logger.Get().Named("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *RedisCache) Get(ctx context.Context, key Key) ([]Entry, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	raw, err := c.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss()
		return nil, ErrMiss
	}
	if err != nil {
		metrics.RecordCacheError()
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		metrics.RecordCacheError()
		c.logger.Warn(ctx, "dropping undecodable cache entry",
			logger.String("key", key.String()),
			logger.Error(err),
		)
		_ = c.client.Del(ctx, key.String()).Err()
		return nil, ErrMiss
	}

	metrics.RecordCacheHit()
	return entries, nil
}

func (c *RedisCache) Set(ctx context.Context, key Key, entries []Entry) error {
	if c.closed.Load() {
		return ErrClosed
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, key.String(), raw, c.ttl).Err(); err != nil {
		metrics.RecordCacheError()
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool. It is safe to call more than once.
func (c *RedisCache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.client.Close()
}
