// Package config defines service configuration and how it is loaded.
package config

import (
	"runtime"
	"time"

	"github.com/okian/reelsim/internal/domain/weights"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// DatasetPath names the CSV or SQLite file loaded at startup.
	DatasetPath string `koanf:"dataset_path"`

	// WorkerCount sets the number of scoring workers. Zero scores queries
	// sequentially on the calling goroutine.
	WorkerCount int `koanf:"worker_count" validate:"gte=0"`

	// QueueSize bounds the batch queue feeding the workers.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`

	// BatchSize is the number of candidates per scoring batch.
	BatchSize int `koanf:"batch_size" validate:"gte=1"`

	// DefaultK is used when a request does not name k; MaxK caps it.
	DefaultK int `koanf:"default_k" validate:"gte=1,ltefield=MaxK"`
	MaxK     int `koanf:"max_k" validate:"gte=1"`

	// DedupeSize bounds duplicate-id tracking while loading. Zero is unbounded.
	DedupeSize int `koanf:"dedupe_size" validate:"gte=0"`

	// Weights maps attribute names to their weights.
	Weights map[string]float64 `koanf:"weights" validate:"required,min=1"`

	CacheEnabled    bool   `koanf:"cache_enabled"`
	RedisAddr       string `koanf:"redis_addr" validate:"required_if=CacheEnabled true"`
	RedisPassword   string `koanf:"redis_password"`
	RedisDB         int    `koanf:"redis_db" validate:"gte=0,lte=15"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds" validate:"gte=0"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		DatasetPath:     "tmdb_5000_movies.csv",
		WorkerCount:     runtime.NumCPU(),
		QueueSize:       1024,
		BatchSize:       256,
		DefaultK:        10,
		MaxK:            100,
		DedupeSize:      0,
		Weights:         weights.Default().Map(),
		CacheEnabled:    false,
		RedisAddr:       "localhost:6379",
		RedisDB:         0,
		CacheTTLSeconds: 600,
	}
}

// WeightsConfig converts the weights map into a validated weights.Config.
func (c *Config) WeightsConfig() (weights.Config, error) {
	w, err := weights.New(c.Weights)
	if err != nil {
		return weights.Config{}, err
	}
	if err := w.Validate(); err != nil {
		return weights.Config{}, err
	}
	return w, nil
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
