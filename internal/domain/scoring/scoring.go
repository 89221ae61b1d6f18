// Package scoring combines per-attribute similarities into one composite score.
package scoring

import (
	"context"

	"github.com/okian/reelsim/internal/domain/model"
	"github.com/okian/reelsim/internal/domain/similarity"
	"github.com/okian/reelsim/internal/domain/weights"
	"github.com/okian/reelsim/pkg/metrics"
)

// Option applies a configuration option to the CompositeScorer.
type Option func(*CompositeScorer)

// WithBreakdown controls whether per-attribute sub-scores are kept.
func WithBreakdown(enabled bool) Option {
	return func(s *CompositeScorer) {
		s.breakdown = enabled
	}
}

// WithComparisonMetrics enables per-attribute comparator counters.
func WithComparisonMetrics(enabled bool) Option {
	return func(s *CompositeScorer) {
		s.recordComparisons = enabled
	}
}

// Scorer computes the composite score of a candidate against a reference.
type Scorer interface {
	// Score returns the weighted average of the attribute similarities and,
	// when enabled, the per-attribute sub-scores.
	Score(reference, candidate *model.Record, w weights.Config) (float64, map[weights.Attribute]float64)

	// ScoreBatch scores every candidate of b except the reference itself.
	ScoreBatch(ctx context.Context, b model.Batch) []model.ScoredCandidate
}

// CompositeScorer implements Scorer with the text, set and numeric comparators.
// It holds no per-query state and is safe for concurrent use.
type CompositeScorer struct {
	breakdown         bool
	recordComparisons bool
}

// NewCompositeScorer creates a scorer with configuration options.
func NewCompositeScorer(opts ...Option) *CompositeScorer {
	s := &CompositeScorer{
		breakdown: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes Σ(w·s)/Σw over the attributes with a nonzero weight. An
// all-zero configuration yields 0; callers reject it before scoring.
func (s *CompositeScorer) Score(reference, candidate *model.Record, w weights.Config) (float64, map[weights.Attribute]float64) {
	var breakdown map[weights.Attribute]float64
	if s.breakdown {
		breakdown = make(map[weights.Attribute]float64, len(weights.Attributes))
	}

	var sum, total float64
	for _, a := range weights.Attributes {
		weight := w.Weight(a)
		if weight <= 0 {
			continue
		}
		sim := compare(a, reference, candidate)
		if s.recordComparisons {
			metrics.RecordComparison(string(a))
		}
		if breakdown != nil {
			breakdown[a] = sim
		}
		sum += weight * sim
		total += weight
	}

	if total == 0 {
		return 0, breakdown
	}
	score := sum / total
	// float rounding can push a perfect match a hair past 1
	if score > 1 {
		score = 1
	}
	return score, breakdown
}

// ScoreBatch scores the batch candidates in order, dropping self matches.
// Cancellation is checked between candidates; on cancel the partial result
// is returned and the caller discards it.
func (s *CompositeScorer) ScoreBatch(ctx context.Context, b model.Batch) []model.ScoredCandidate {
	if b.Reference == nil {
		return nil
	}
	out := make([]model.ScoredCandidate, 0, len(b.Candidates))
	for i := range b.Candidates {
		if ctx.Err() != nil {
			break
		}
		c := &b.Candidates[i]
		if c.ID == b.Reference.ID {
			continue
		}
		score, breakdown := s.Score(b.Reference, c, b.Weights)
		out = append(out, model.ScoredCandidate{
			Record:    c,
			Score:     score,
			Breakdown: breakdown,
			Index:     b.Offset + i,
		})
	}
	metrics.RecordCandidatesScored(len(out))
	return out
}

func compare(a weights.Attribute, reference, candidate *model.Record) float64 {
	switch similarity.KindOf(a) {
	case similarity.KindText:
		return similarity.Text(reference.Text(a), candidate.Text(a))
	case similarity.KindNumeric:
		return similarity.Numeric(reference.Number(a), candidate.Number(a))
	default:
		return similarity.Set(reference.Set(a), candidate.Set(a))
	}
}
