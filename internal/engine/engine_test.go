package engine_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/okian/reelsim/internal/adapters/mq/queue"
	"github.com/okian/reelsim/internal/adapters/mq/worker"
	"github.com/okian/reelsim/internal/domain/model"
	"github.com/okian/reelsim/internal/domain/scoring"
	"github.com/okian/reelsim/internal/domain/weights"
	"github.com/okian/reelsim/internal/engine"
	logging "github.com/okian/reelsim/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// countingScorer wraps the composite scorer and counts batches.
type countingScorer struct {
	*scoring.CompositeScorer
	batches atomic.Int64
}

func (s *countingScorer) ScoreBatch(ctx context.Context, b model.Batch) []model.ScoredCandidate {
	s.batches.Add(1)
	return s.CompositeScorer.ScoreBatch(ctx, b)
}

// rejectingSubmitter refuses every batch.
type rejectingSubmitter struct{ calls atomic.Int64 }

func (r *rejectingSubmitter) Enqueue(context.Context, model.Batch) bool {
	r.calls.Add(1)
	return false
}

var genrePool = []string{"Action", "Adventure", "Comedy", "Drama", "Fantasy", "Horror", "Romance", "Sci-Fi", "Thriller"}

func catalog(n int, seed int64) []model.Record {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible fixtures
	out := make([]model.Record, n)
	for i := range out {
		genres := []string{genrePool[rng.Intn(len(genrePool))], genrePool[rng.Intn(len(genrePool))]}
		out[i] = model.Record{
			ID:       int64(i + 100),
			Title:    fmt.Sprintf("Movie %d", rng.Intn(50)),
			Genres:   model.Record{Genres: genres}.Normalize().Genres,
			Keywords: []string{fmt.Sprintf("kw%d", rng.Intn(10))},
			Budget:   float64(rng.Intn(5)) * 1e6,
		}
	}
	return out
}

func equalWeights() weights.Config {
	return weights.MustNew(map[string]float64{"title": 1, "genres": 1, "budget": 1})
}

func TestRecommend(t *testing.T) {
	Convey("Given an engine", t, func() {
		_ = logging.Init()
		e := engine.New()
		ctx := context.Background()
		reference := model.Record{ID: 1, Title: "Alpha", Genres: []string{"Action", "Sci-Fi"}, Budget: 1000}

		Convey("When a candidate is identical on every weighted attribute", func() {
			candidates := []model.Record{{ID: 2, Title: "Alpha", Genres: []string{"Action", "Sci-Fi"}, Budget: 1000}}
			result, err := e.Recommend(ctx, &reference, candidates, equalWeights(), 10)

			Convey("Then it is a 100% match", func() {
				So(err, ShouldBeNil)
				So(result, ShouldHaveLength, 1)
				So(result[0].Score, ShouldEqual, 1.0)
				So(result[0].RoundedPercent(), ShouldEqual, 100)
			})
		})

		Convey("When the candidate list is empty", func() {
			result, err := e.Recommend(ctx, &reference, nil, equalWeights(), 10)

			Convey("Then an empty result signals the empty candidate set", func() {
				So(errors.Is(err, engine.ErrEmptyCandidateSet), ShouldBeTrue)
				So(result, ShouldNotBeNil)
				So(result, ShouldBeEmpty)
			})
		})

		Convey("When every weight is zero", func() {
			counting := &countingScorer{CompositeScorer: scoring.NewCompositeScorer()}
			guarded := engine.New(engine.WithScorer(counting))
			_, err := guarded.Recommend(ctx, &reference, catalog(10, 1), weights.Config{}, 10)

			Convey("Then a configuration error is returned before scoring", func() {
				So(errors.Is(err, engine.ErrConfiguration), ShouldBeTrue)
				So(errors.Is(err, weights.ErrAllZero), ShouldBeTrue)
				So(counting.batches.Load(), ShouldEqual, 0)
			})

			Convey("And it wins over an empty candidate set", func() {
				_, err := guarded.Recommend(ctx, &reference, nil, weights.Config{}, 10)
				So(errors.Is(err, engine.ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When the reference is among the candidates", func() {
			candidates := append(catalog(30, 2), reference, reference)
			result, err := e.Recommend(ctx, &reference, candidates, weights.Default(), 100)

			Convey("Then it never appears in the result", func() {
				So(err, ShouldBeNil)
				So(result, ShouldHaveLength, 30)
				for _, m := range result {
					So(m.Record.ID, ShouldNotEqual, reference.ID)
				}
			})
		})

		Convey("When the only candidate is the reference", func() {
			result, err := e.Recommend(ctx, &reference, []model.Record{reference}, weights.Default(), 5)

			Convey("Then the candidate set is empty", func() {
				So(errors.Is(err, engine.ErrEmptyCandidateSet), ShouldBeTrue)
				So(result, ShouldBeEmpty)
			})
		})

		Convey("When the reference is missing", func() {
			_, err := e.Recommend(ctx, nil, catalog(3, 3), weights.Default(), 5)

			Convey("Then the query is rejected", func() {
				So(errors.Is(err, engine.ErrNoReference), ShouldBeTrue)
			})
		})

		Convey("When k is not positive", func() {
			result, err := e.Recommend(ctx, &reference, catalog(40, 4), weights.Default(), 0)

			Convey("Then the default k applies", func() {
				So(err, ShouldBeNil)
				So(result, ShouldHaveLength, e.DefaultK())
			})
		})

		Convey("When fewer candidates than k exist", func() {
			result, err := e.Recommend(ctx, &reference, catalog(3, 5), weights.Default(), 10)

			Convey("Then all of them are returned in rank order", func() {
				So(err, ShouldBeNil)
				So(result, ShouldHaveLength, 3)
				for i := 1; i < len(result); i++ {
					So(result[i-1].Score, ShouldBeGreaterThanOrEqualTo, result[i].Score)
				}
			})
		})

		Convey("When candidates have malformed fields", func() {
			candidates := []model.Record{{ID: 7}, {ID: 8, Title: "Alpha", Budget: -1}}
			result, err := e.Recommend(ctx, &reference, candidates, weights.Default(), 10)

			Convey("Then they are scored with neutral values", func() {
				So(err, ShouldBeNil)
				So(result, ShouldHaveLength, 2)
				So(result[0].Record.ID, ShouldEqual, 8)
			})
		})

		Convey("When the context is cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := e.Recommend(cancelled, &reference, catalog(10, 6), weights.Default(), 10)

			Convey("Then the context error is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When the candidates are shuffled", func() {
			candidates := catalog(200, 7)
			want, err := e.Recommend(ctx, &reference, candidates, weights.Default(), 15)
			So(err, ShouldBeNil)

			Convey("Then the result is identical", func() {
				rng := rand.New(rand.NewSource(11)) //nolint:gosec // reproducible shuffle
				for range 5 {
					shuffled := append([]model.Record(nil), candidates...)
					rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
					got, err := e.Recommend(ctx, &reference, shuffled, weights.Default(), 15)
					So(err, ShouldBeNil)
					So(got.IDs(), ShouldResemble, want.IDs())
				}
			})
		})
	})
}

func TestRecommendParallel(t *testing.T) {
	Convey("Given an engine backed by a worker pool", t, func() {
		_ = logging.Init()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		scorer := scoring.NewCompositeScorer()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		pool := worker.NewPool(3, q, scorer)
		pool.Start(ctx)
		defer func() { _ = pool.Shutdown(context.Background()) }()

		parallel := engine.New(engine.WithSubmitter(q), engine.WithBatchSize(16), engine.WithScorer(scorer))
		sequential := engine.New(engine.WithScorer(scorer))

		reference := model.Record{ID: 103, Title: "Movie 3", Genres: []string{"Drama"}, Budget: 2e6}
		candidates := catalog(1000, 42)

		Convey("When the same query runs both ways", func() {
			want, err := sequential.Recommend(ctx, &reference, candidates, weights.Default(), 25)
			So(err, ShouldBeNil)
			got, err := parallel.Recommend(ctx, &reference, candidates, weights.Default(), 25)
			So(err, ShouldBeNil)

			Convey("Then the results are identical", func() {
				So(got.IDs(), ShouldResemble, want.IDs())
				for i := range got {
					So(got[i].Score, ShouldEqual, want[i].Score)
				}
			})

			Convey("And the reference is excluded", func() {
				for _, m := range got {
					So(m.Record.ID, ShouldNotEqual, reference.ID)
				}
			})
		})

		Convey("When the queue rejects every batch", func() {
			rejecting := &rejectingSubmitter{}
			inline := engine.New(engine.WithSubmitter(rejecting), engine.WithBatchSize(100))
			got, err := inline.Recommend(ctx, &reference, candidates, weights.Default(), 10)
			want, _ := sequential.Recommend(ctx, &reference, candidates, weights.Default(), 10)

			Convey("Then the caller scores every batch inline", func() {
				So(err, ShouldBeNil)
				So(rejecting.calls.Load(), ShouldEqual, 10)
				So(got.IDs(), ShouldResemble, want.IDs())
			})
		})

		Convey("When queries run concurrently", func() {
			want, err := sequential.Recommend(ctx, &reference, candidates, weights.Default(), 10)
			So(err, ShouldBeNil)

			errs := make(chan error, 8)
			ids := make(chan []int64, 8)
			for i := 0; i < 8; i++ {
				go func() {
					r, err := parallel.Recommend(ctx, &reference, candidates, weights.Default(), 10)
					errs <- err
					ids <- r.IDs()
				}()
			}

			Convey("Then each gets the full, identical answer", func() {
				for i := 0; i < 8; i++ {
					So(<-errs, ShouldBeNil)
					So(<-ids, ShouldResemble, want.IDs())
				}
			})
		})
	})
}
