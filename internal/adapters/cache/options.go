package cache

import (
	"time"

	"github.com/okian/reelsim/pkg/logger"
)

// Option configures a RedisCache.
type Option func(*RedisCache)

// WithTTL sets how long entries live. Zero keeps them until evicted.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl >= 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *RedisCache) {
		if l != nil {
			c.logger = l
		}
	}
}
