// Package service wires the catalog, similarity engine, worker pool and
// result cache into the operations served by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/reelsim/internal/adapters/cache"
	"github.com/okian/reelsim/internal/adapters/dataset"
	batchqueue "github.com/okian/reelsim/internal/adapters/mq/queue"
	workerpool "github.com/okian/reelsim/internal/adapters/mq/worker"
	"github.com/okian/reelsim/internal/adapters/repository"
	"github.com/okian/reelsim/internal/domain/model"
	"github.com/okian/reelsim/internal/domain/ranking"
	"github.com/okian/reelsim/internal/domain/scoring"
	"github.com/okian/reelsim/internal/domain/weights"
	"github.com/okian/reelsim/internal/engine"
	"github.com/okian/reelsim/pkg/logger"
	"github.com/okian/reelsim/pkg/metrics"
)

const defaultMaxK = 100

// Service implements the API dependencies for the similarity service.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog repository.Store
	cache   cache.Cache
	engine  *engine.Engine
	queue   *batchqueue.InMemoryQueue
	pool    *workerpool.Pool

	// Configuration
	workerCount  int
	queueSize    int
	batchSize    int
	defaultK     int
	maxK         int
	dedupeSize   int
	weights      weights.Config
	datasetPath  string
	cacheEnabled bool

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		catalog:     repository.NewMemoryCatalog(),
		cache:       cache.NewNop(),
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		batchSize:   256,
		defaultK:    ranking.DefaultK,
		maxK:        defaultMaxK,
		weights:     weights.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the configured dataset, if any, and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if err := s.weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", engine.ErrConfiguration, err)
	}

	s.logger.Info(ctx, "starting similarity service...")

	if s.datasetPath != "" {
		if _, err := s.loadDataset(ctx, s.datasetPath); err != nil {
			return err
		}
	}

	scorer := scoring.NewCompositeScorer()
	engineOpts := []engine.Option{
		engine.WithScorer(scorer),
		engine.WithBatchSize(s.batchSize),
		engine.WithDefaultK(s.defaultK),
	}
	if s.workerCount > 0 {
		s.queue = batchqueue.NewInMemoryQueue(batchqueue.WithCapacity(s.queueSize))
		s.pool = workerpool.NewPool(s.workerCount, s.queue, scorer)
		// Workers outlive the request that happens to start the service.
		s.pool.Start(context.WithoutCancel(ctx))
		engineOpts = append(engineOpts, engine.WithSubmitter(s.queue))
	}
	s.engine = engine.New(engineOpts...)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "similarity service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("batchSize", s.batchSize),
		logger.Int("records", s.catalog.Count(ctx)),
		logger.String("weights", s.weights.String()),
		logger.Any("activeAttributes", s.weights.Active()),
		logger.Bool("cache", s.cacheEnabled),
	)
	return nil
}

// Stop drains the worker pool and releases the cache.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping similarity service...")

	var errs []error
	if s.pool != nil {
		errs = append(errs, s.pool.Shutdown(ctx))
	}
	errs = append(errs, s.cache.Close())

	s.started = false
	s.logger.Info(ctx, "similarity service stopped")
	return errors.Join(errs...)
}

// LoadDataset replaces the catalog with the records read from path.
func (s *Service) LoadDataset(ctx context.Context, path string) (dataset.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s.loadDataset(ctx, path)
}

func (s *Service) loadDataset(ctx context.Context, path string) (dataset.Report, error) {
	records, report, err := dataset.Open(ctx, path, dataset.WithDedupeSize(s.dedupeSize))
	if err != nil {
		return report, fmt.Errorf("load dataset %s: %w", path, err)
	}
	if err := s.catalog.Replace(ctx, records, path); err != nil {
		return report, fmt.Errorf("replace catalog: %w", err)
	}
	return report, nil
}

// Recommend returns the k records most similar to the record with id, using
// the service weights and the whole catalog as candidates. k <= 0 means the
// default k.
func (s *Service) Recommend(ctx context.Context, id int64, k int) (model.RankedResult, error) {
	s.mu.RLock()
	started, eng := s.started, s.engine
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	if k <= 0 {
		k = s.defaultK
	}
	if k > s.maxK {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidK, k, s.maxK)
	}

	// read the version before any record so a concurrent reload can only
	// file fresh results under the old key, never the reverse
	version := s.catalog.Info(ctx).Version
	reference, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := cache.NewKey(version, id, s.weights, k)
	if result, ok := s.cached(ctx, key); ok {
		return result, nil
	}

	result, err := eng.Recommend(ctx, reference, s.catalog.All(ctx), s.weights, k)
	if err != nil {
		return result, err
	}

	if err := s.cache.Set(ctx, key, toEntries(result)); err != nil {
		s.logger.Warn(ctx, "cache store failed", logger.String("key", key.String()), logger.Error(err))
	}
	return result, nil
}

// cached returns the stored result for key when every entry still resolves
// in the catalog.
func (s *Service) cached(ctx context.Context, key cache.Key) (model.RankedResult, bool) {
	entries, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn(ctx, "cache lookup failed", logger.String("key", key.String()), logger.Error(err))
		}
		return nil, false
	}

	result := make(model.RankedResult, 0, len(entries))
	for _, e := range entries {
		rec, err := s.catalog.Get(ctx, e.ID)
		if err != nil {
			return nil, false
		}
		result = append(result, model.Match{Record: rec, Score: e.Score, Breakdown: e.Breakdown})
	}
	return result, true
}

func toEntries(result model.RankedResult) []cache.Entry {
	entries := make([]cache.Entry, len(result))
	for i, m := range result {
		entries[i] = cache.Entry{ID: m.Record.ID, Score: m.Score, Breakdown: m.Breakdown}
	}
	return entries
}

// Movie returns one catalog record.
func (s *Service) Movie(ctx context.Context, id int64) (*model.Record, error) {
	return s.catalog.Get(ctx, id)
}

// Movies returns a page of the catalog records whose title contains query,
// ignoring case, in load order. An empty query lists every record.
func (s *Service) Movies(ctx context.Context, query string, offset, limit int) ([]model.Record, error) {
	return s.catalog.Search(ctx, query, offset, limit)
}

// DefaultK returns the result size used when a request omits k.
func (s *Service) DefaultK() int { return s.defaultK }

// MaxK returns the largest accepted k.
func (s *Service) MaxK() int { return s.maxK }

// Weights returns the weights applied to every query.
func (s *Service) Weights() weights.Config { return s.weights }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	info := s.catalog.Info(ctx)
	stats := map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"batchSize":        s.batchSize,
		"defaultK":         s.defaultK,
		"maxK":             s.maxK,
		"weights":          s.weights.Map(),
		"activeAttributes": s.weights.Active(),
		"cacheEnabled":     s.cacheEnabled,
		"records":          info.Count,
		"source":           info.Source,
		"catalogVersion":   info.Version,
	}
	if !info.LoadedAt.IsZero() {
		stats["loadedAt"] = info.LoadedAt.UTC().Format(time.RFC3339)
	}

	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
		if s.queue != nil {
			queueLen := s.queue.Len(ctx)
			stats["queueLength"] = queueLen
			metrics.UpdateQueueSize(queueLen)
		}
		if s.pool != nil {
			stats["batchesProcessed"] = s.pool.Processed()
		}
	}
	return stats
}
