package service

import (
	"github.com/okian/reelsim/internal/adapters/cache"
	"github.com/okian/reelsim/internal/adapters/repository"
	"github.com/okian/reelsim/internal/domain/weights"
	"github.com/okian/reelsim/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers. Zero disables the
// pool and scores on the request goroutine.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count >= 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the batch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithBatchSize sets how many candidates make one scoring batch.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithK sets the default and maximum result sizes.
func WithK(defaultK, maxK int) Option {
	return func(s *Service) {
		if defaultK > 0 && maxK >= defaultK {
			s.defaultK = defaultK
			s.maxK = maxK
		}
	}
}

// WithDedupeSize bounds duplicate-id tracking while loading a dataset.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithWeights sets the static attribute weights used for every query.
func WithWeights(w weights.Config) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithDatasetPath names the dataset loaded by Start.
func WithDatasetPath(path string) Option {
	return func(s *Service) {
		s.datasetPath = path
	}
}

// WithCatalog replaces the in-memory catalog.
func WithCatalog(c repository.Store) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithCache enables result caching.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
			s.cacheEnabled = true
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
