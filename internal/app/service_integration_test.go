package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/okian/reelsim/internal/adapters/cache"
	"github.com/okian/reelsim/internal/adapters/repository"
	service "github.com/okian/reelsim/internal/app"
	"github.com/okian/reelsim/internal/domain/weights"
	"github.com/okian/reelsim/internal/engine"
	. "github.com/smartystreets/goconvey/convey"
)

const moviesCSV = `id,title,genres,keywords,production_companies,budget,homepage
1,The Dark Knight,"[""Action"", ""Crime"", ""Drama""]","[""dc comics"", ""joker""]","[""Warner Bros.""]",185000000,http://thedarkknight.warnerbros.com/
2,The Dark Knight Rises,"[""Action"", ""Crime"", ""Drama"", ""Thriller""]","[""dc comics"", ""batman""]","[""Warner Bros.""]",250000000,http://www.thedarkknightrises.com/
3,Batman Begins,"[""Action"", ""Crime"", ""Drama""]","[""dc comics"", ""batman""]","[""Warner Bros.""]",150000000,
4,Toy Story,"[""Animation"", ""Comedy"", ""Family""]","[""toy""]","[""Pixar""]",30000000,http://toystory.disney.com/
5,Finding Nemo,"[""Animation"", ""Family""]","[""fish""]","[""Pixar""]",94000000,
`

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with a loaded dataset and a worker pool", t, func() {
		path := writeDataset(t, moviesCSV)
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithBatchSize(2),
			service.WithDatasetPath(path),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When asking for movies similar to The Dark Knight", func() {
			result, err := svc.Recommend(ctx, 1, 2)

			Convey("Then the two Batman sequels come first", func() {
				So(err, ShouldBeNil)
				So(result, ShouldHaveLength, 2)
				So(result.IDs(), ShouldContain, int64(2))
				So(result.IDs(), ShouldContain, int64(3))
			})

			Convey("And the reference itself is excluded", func() {
				So(result.IDs(), ShouldNotContain, int64(1))
			})

			Convey("And scores are ordered and bounded", func() {
				So(result[0].Score, ShouldBeGreaterThanOrEqualTo, result[1].Score)
				So(result[0].Score, ShouldBeLessThanOrEqualTo, 1)
				So(result[1].Score, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When k is omitted", func() {
			result, err := svc.Recommend(ctx, 4, 0)

			Convey("Then every other movie is returned, up to the default k", func() {
				So(err, ShouldBeNil)
				So(result, ShouldHaveLength, 4)
				So(result[0].Record.ID, ShouldEqual, 5)
			})
		})

		Convey("When the result is compared with sequential scoring", func() {
			sequential := service.New(service.WithWorkerCount(0), service.WithDatasetPath(path))
			So(sequential.Start(ctx), ShouldBeNil)
			defer func() { _ = sequential.Stop(ctx) }()

			parallel, err := svc.Recommend(ctx, 2, 4)
			So(err, ShouldBeNil)
			serial, err := sequential.Recommend(ctx, 2, 4)
			So(err, ShouldBeNil)

			Convey("Then both agree exactly", func() {
				So(parallel.IDs(), ShouldResemble, serial.IDs())
				for i := range parallel {
					So(parallel[i].Score, ShouldEqual, serial[i].Score)
				}
			})
		})

		Convey("When k exceeds the maximum", func() {
			_, err := svc.Recommend(ctx, 1, 1000)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrInvalidK), ShouldBeTrue)
			})
		})

		Convey("When the reference does not exist", func() {
			_, err := svc.Recommend(ctx, 42, 3)

			Convey("Then not found is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When reading catalog records", func() {
			rec, err := svc.Movie(ctx, 4)
			page, pageErr := svc.Movies(ctx, "", 1, 2)
			hits, hitsErr := svc.Movies(ctx, "dark KNIGHT", 0, 10)

			Convey("Then they come from the loaded dataset", func() {
				So(err, ShouldBeNil)
				So(rec.Title, ShouldEqual, "Toy Story")
				So(pageErr, ShouldBeNil)
				So(page, ShouldHaveLength, 2)
				So(page[0].ID, ShouldEqual, 2)
			})

			Convey("And titles can be searched", func() {
				So(hitsErr, ShouldBeNil)
				So(hits, ShouldHaveLength, 2)
				So(hits[0].ID, ShouldEqual, 1)
				So(hits[1].ID, ShouldEqual, 2)
			})
		})

		Convey("When reading stats", func() {
			_, _ = svc.Recommend(ctx, 1, 3)
			stats := svc.GetStats()

			Convey("Then they describe the catalog and the pool", func() {
				So(stats["records"], ShouldEqual, 5)
				So(stats["source"], ShouldEqual, path)
				So(stats["started"], ShouldEqual, true)
				So(stats["batchesProcessed"], ShouldBeGreaterThanOrEqualTo, int64(0))
				So(stats["activeAttributes"], ShouldResemble, weights.Default().Active())
				So(stats["activeAttributes"], ShouldHaveLength, len(weights.Attributes))
			})
		})
	})

	Convey("Given a catalog holding only the reference", t, func() {
		path := writeDataset(t, "id,title\n7,Alone\n")
		svc := service.New(service.WithDatasetPath(path))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("Then the candidate set is empty", func() {
			result, err := svc.Recommend(ctx, 7, 3)
			So(errors.Is(err, engine.ErrEmptyCandidateSet), ShouldBeTrue)
			So(result, ShouldBeEmpty)
		})
	})

	Convey("Given a service reloading its dataset", t, func() {
		svc := service.New(service.WithWorkerCount(0))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		report, err := svc.LoadDataset(ctx, writeDataset(t, moviesCSV+"1,Duplicate,,,,0,\n"))

		Convey("Then the report is returned and the catalog replaced", func() {
			So(err, ShouldBeNil)
			So(report.Loaded, ShouldEqual, 5)
			So(report.Duplicates, ShouldEqual, 1)
			So(svc.GetStats()["records"], ShouldEqual, 5)
		})
	})
}

func TestServiceCache(t *testing.T) {
	Convey("Given a service backed by a Redis cache", t, func() {
		ctx := context.Background()
		mr, err := miniredis.Run()
		So(err, ShouldBeNil)
		defer mr.Close()

		rc, err := cache.NewRedis(ctx, mr.Addr(), "", 0, cache.WithTTL(time.Minute))
		So(err, ShouldBeNil)

		svc := service.New(
			service.WithWorkerCount(0),
			service.WithDatasetPath(writeDataset(t, moviesCSV)),
			service.WithCache(rc),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		version, ok := svc.GetStats()["catalogVersion"].(uint64)
		So(ok, ShouldBeTrue)
		So(version, ShouldBeGreaterThan, 0)
		key := cache.NewKey(version, 1, weights.Default(), 3)

		Convey("When the same query runs twice", func() {
			first, err := svc.Recommend(ctx, 1, 3)
			So(err, ShouldBeNil)
			So(mr.Exists(key.String()), ShouldBeTrue)

			second, err := svc.Recommend(ctx, 1, 3)

			Convey("Then the cached answer matches the computed one", func() {
				So(err, ShouldBeNil)
				So(second.IDs(), ShouldResemble, first.IDs())
				for i := range first {
					So(second[i].Score, ShouldEqual, first[i].Score)
					So(second[i].Breakdown, ShouldResemble, first[i].Breakdown)
					So(second[i].Record, ShouldPointTo, first[i].Record)
				}
			})
		})

		Convey("When a cached entry names a record the catalog lacks", func() {
			So(rc.Set(ctx, key, []cache.Entry{{ID: 999, Score: 1}}), ShouldBeNil)
			result, err := svc.Recommend(ctx, 1, 3)

			Convey("Then the result is recomputed", func() {
				So(err, ShouldBeNil)
				So(result.IDs(), ShouldNotContain, int64(999))
				So(result, ShouldHaveLength, 3)
			})
		})

		Convey("When the dataset is reloaded after a cached query", func() {
			before, err := svc.Recommend(ctx, 1, 1)
			So(err, ShouldBeNil)
			So(before[0].Record.ID, ShouldNotEqual, 3)

			changed := `id,title,genres,keywords,production_companies,budget,homepage
1,The Dark Knight,"[""Action"", ""Crime"", ""Drama""]","[""dc comics"", ""joker""]","[""Warner Bros.""]",185000000,http://thedarkknight.warnerbros.com/
2,Qqqqq,"[""Horror""]","[]","[]",5,
3,The Dark Knight,"[""Action"", ""Crime"", ""Drama""]","[""dc comics"", ""joker""]","[""Warner Bros.""]",185000000,http://thedarkknight.warnerbros.com/
`
			_, err = svc.LoadDataset(ctx, writeDataset(t, changed))
			So(err, ShouldBeNil)
			after, err := svc.Recommend(ctx, 1, 1)

			Convey("Then the answer reflects the new records", func() {
				So(err, ShouldBeNil)
				So(after, ShouldHaveLength, 1)
				So(after[0].Record.ID, ShouldEqual, 3)
				So(after[0].Score, ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("And the old entry is no longer consulted", func() {
				newVersion, _ := svc.GetStats()["catalogVersion"].(uint64)
				So(newVersion, ShouldBeGreaterThan, version)
				So(mr.Exists(cache.NewKey(newVersion, 1, weights.Default(), 1).String()), ShouldBeTrue)
			})
		})

		Convey("When Redis becomes unavailable", func() {
			mr.Close()
			result, err := svc.Recommend(ctx, 1, 3)

			Convey("Then queries still succeed", func() {
				So(err, ShouldBeNil)
				So(result, ShouldHaveLength, 3)
			})
		})
	})
}
