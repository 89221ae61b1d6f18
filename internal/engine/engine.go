// Package engine answers similarity queries: it scores every candidate against
// a reference record and returns the top K.
//
// The engine keeps no state between queries. Scoring runs sequentially or, with
// a Submitter, in batches on a worker pool; either way the ranking step imposes
// one total order, so the output does not depend on scheduling.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/reelsim/internal/domain/model"
	"github.com/okian/reelsim/internal/domain/ranking"
	"github.com/okian/reelsim/internal/domain/scoring"
	"github.com/okian/reelsim/internal/domain/weights"
	"github.com/okian/reelsim/pkg/logger"
	"github.com/okian/reelsim/pkg/metrics"
)

const defaultBatchSize = 256

// Engine implements the recommend operation.
type Engine struct {
	scorer    scoring.Scorer
	submitter Submitter
	batchSize int
	defaultK  int
	logger    logger.Logger
}

// New creates an engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		scorer:    scoring.NewCompositeScorer(),
		batchSize: defaultBatchSize,
		defaultK:  ranking.DefaultK,
		logger:    logger.Get().Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultK returns the result size used when a query passes k <= 0.
func (e *Engine) DefaultK() int {
	return e.defaultK
}

// Recommend scores candidates against reference with w and returns the best k,
// excluding any candidate that shares the reference's identifier.
//
// It returns ErrConfiguration when every weight is zero, before touching a
// candidate, and ErrEmptyCandidateSet with an empty result when no other
// candidate exists. Candidates are only read.
func (e *Engine) Recommend(ctx context.Context, reference *model.Record, candidates []model.Record, w weights.Config, k int) (model.RankedResult, error) {
	start := time.Now()

	if err := w.Validate(); err != nil {
		metrics.RecordRecommendationError("configuration")
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if reference == nil {
		metrics.RecordRecommendationError("no_reference")
		return nil, ErrNoReference
	}
	if len(candidates) == 0 {
		metrics.RecordRecommendationError("empty_candidates")
		return model.RankedResult{}, ErrEmptyCandidateSet
	}
	if k <= 0 {
		k = e.defaultK
	}

	queryID := uuid.NewString()
	scored, err := e.score(ctx, queryID, reference, candidates, w)
	if err != nil {
		metrics.RecordRecommendationError("cancelled")
		return nil, err
	}
	if len(scored) == 0 {
		metrics.RecordRecommendationError("empty_candidates")
		return model.RankedResult{}, ErrEmptyCandidateSet
	}

	result := ranking.SelectTopK(scored, k)

	elapsed := time.Since(start)
	metrics.RecordRecommendation(float64(elapsed.Microseconds())/1000, len(result))
	e.logger.Debug(ctx, "recommendation computed",
		logger.String("query_id", queryID),
		logger.Int64("reference_id", reference.ID),
		logger.Int("candidates", len(candidates)),
		logger.Int("scored", len(scored)),
		logger.Int("k", k),
		logger.Duration("took", elapsed),
	)
	return result, nil
}

// score runs the scoring pass and joins every batch before returning.
func (e *Engine) score(ctx context.Context, queryID string, reference *model.Record, candidates []model.Record, w weights.Config) ([]model.ScoredCandidate, error) {
	batches := (len(candidates) + e.batchSize - 1) / e.batchSize
	if e.submitter == nil || batches <= 1 {
		scored := e.scorer.ScoreBatch(ctx, model.Batch{
			QueryID:    queryID,
			Reference:  reference,
			Candidates: candidates,
			Weights:    w,
		})
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scoring interrupted: %w", err)
		}
		return scored, nil
	}

	results := make(chan model.BatchResult, batches)
	for offset := 0; offset < len(candidates); offset += e.batchSize {
		end := min(offset+e.batchSize, len(candidates))
		b := model.Batch{
			QueryID:    queryID,
			Reference:  reference,
			Candidates: candidates[offset:end:end],
			Offset:     offset,
			Weights:    w,
			Results:    results,
		}
		if e.submitter.Enqueue(ctx, b) {
			continue
		}
		metrics.RecordInlineBatch()
		results <- model.BatchResult{Offset: offset, Scored: e.scorer.ScoreBatch(ctx, b)}
	}

	scored := make([]model.ScoredCandidate, 0, len(candidates))
	for received := 0; received < batches; received++ {
		select {
		case r := <-results:
			scored = append(scored, r.Scored...)
		case <-ctx.Done():
			return nil, fmt.Errorf("scoring interrupted: %w", ctx.Err())
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring interrupted: %w", err)
	}
	return scored, nil
}
