package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/reelsim/internal/adapters/repository"
	"github.com/okian/reelsim/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryCatalog(t *testing.T) {
	Convey("Given an empty catalog", t, func() {
		ctx := context.Background()
		c := repository.NewMemoryCatalog(repository.WithMaxPageSize(3))

		Convey("Then it has no records", func() {
			So(c.Count(ctx), ShouldEqual, 0)
			So(c.All(ctx), ShouldBeEmpty)
			So(c.Info(ctx).Version, ShouldEqual, 0)
			_, err := c.Get(ctx, 1)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When records are loaded", func() {
			records := []model.Record{
				{ID: 19995, Title: "Avatar"},
				{ID: 285, Title: "Pirates of the Caribbean: At World's End"},
				{ID: 206647, Title: "Spectre"},
				{ID: 285, Title: "duplicate"},
				{ID: 49026, Title: "The Dark Knight Rises"},
			}
			So(c.Replace(ctx, records, "movies.csv"), ShouldBeNil)

			Convey("Then lookups by id resolve", func() {
				r, err := c.Get(ctx, 206647)
				So(err, ShouldBeNil)
				So(r.Title, ShouldEqual, "Spectre")
			})

			Convey("And the first record wins for duplicate ids", func() {
				r, err := c.Get(ctx, 285)
				So(err, ShouldBeNil)
				So(r.Title, ShouldStartWith, "Pirates")
			})

			Convey("And All keeps load order", func() {
				So(c.All(ctx), ShouldHaveLength, 5)
				So(c.All(ctx)[0].ID, ShouldEqual, 19995)
				So(c.Count(ctx), ShouldEqual, 5)
			})

			Convey("And the snapshot is described", func() {
				info := c.Info(ctx)
				So(info.Source, ShouldEqual, "movies.csv")
				So(info.Count, ShouldEqual, 5)
				So(info.LoadedAt.IsZero(), ShouldBeFalse)
			})

			Convey("And pages are bounded", func() {
				page, err := c.List(ctx, 3, 3)
				So(err, ShouldBeNil)
				So(page, ShouldHaveLength, 2)
				So(page[1].ID, ShouldEqual, 49026)

				empty, err := c.List(ctx, 10, 3)
				So(err, ShouldBeNil)
				So(empty, ShouldBeEmpty)

				_, err = c.List(ctx, 0, 4)
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
				_, err = c.List(ctx, -1, 2)
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})

			Convey("And titles can be searched ignoring case", func() {
				hits, err := c.Search(ctx, "  THE ", 0, 3)
				So(err, ShouldBeNil)
				ids := make([]int64, len(hits))
				for i, r := range hits {
					ids[i] = r.ID
				}
				So(ids, ShouldResemble, []int64{285, 49026})

				page, err := c.Search(ctx, "the", 1, 3)
				So(err, ShouldBeNil)
				So(page, ShouldHaveLength, 1)
				So(page[0].ID, ShouldEqual, 49026)

				none, err := c.Search(ctx, "nemo", 0, 3)
				So(err, ShouldBeNil)
				So(none, ShouldBeEmpty)

				all, err := c.Search(ctx, "", 0, 3)
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 3)

				_, err = c.Search(ctx, "the", 0, 4)
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})

			Convey("And every replacement bumps the version", func() {
				first := c.Info(ctx).Version
				So(first, ShouldBeGreaterThan, 0)
				So(c.Replace(ctx, records, "movies.csv"), ShouldBeNil)
				So(c.Info(ctx).Version, ShouldBeGreaterThan, first)
			})

			Convey("And a replacement does not disturb earlier readers", func() {
				before := c.All(ctx)
				So(c.Replace(ctx, []model.Record{{ID: 1, Title: "Other"}}, "other.db"), ShouldBeNil)

				So(before, ShouldHaveLength, 5)
				So(c.Count(ctx), ShouldEqual, 1)
				_, err := c.Get(ctx, 19995)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestMemoryCatalogConcurrency(t *testing.T) {
	Convey("Given readers racing a writer", t, func() {
		ctx := context.Background()
		c := repository.NewMemoryCatalog()
		_ = c.Replace(ctx, []model.Record{{ID: 1}, {ID: 2}}, "a")

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 500; j++ {
					_ = c.Count(ctx)
					_, _ = c.Get(ctx, 1)
				}
			}()
		}
		for j := 0; j < 50; j++ {
			_ = c.Replace(ctx, []model.Record{{ID: 1}, {ID: int64(j + 2)}}, "b")
		}
		wg.Wait()

		Convey("Then the last snapshot is visible", func() {
			So(c.Count(ctx), ShouldEqual, 2)
			So(c.Info(ctx).Source, ShouldEqual, "b")
		})
	})
}
