package engine

import (
	"context"

	"github.com/okian/reelsim/internal/domain/model"
	"github.com/okian/reelsim/internal/domain/scoring"
	"github.com/okian/reelsim/pkg/logger"
)

// Submitter hands batches to a worker pool. Enqueue must not block; a false
// return means the caller scores the batch itself.
type Submitter interface {
	Enqueue(ctx context.Context, b model.Batch) bool
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithScorer replaces the composite scorer.
func WithScorer(s scoring.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithSubmitter enables parallel scoring through a worker queue.
func WithSubmitter(s Submitter) Option {
	return func(e *Engine) {
		e.submitter = s
	}
}

// WithBatchSize sets how many candidates go into one batch.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithDefaultK sets the result size used when a query passes k <= 0.
func WithDefaultK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.defaultK = k
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
