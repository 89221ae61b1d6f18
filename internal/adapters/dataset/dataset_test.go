package dataset_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/reelsim/internal/adapters/dataset"
	"github.com/okian/reelsim/internal/domain/model"
	logging "github.com/okian/reelsim/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const header = "budget,genres,homepage,id,keywords,original_language,original_title,overview,popularity,production_companies,production_countries,release_date,revenue,runtime,spoken_languages,status,tagline,title,vote_average,vote_count\n"

const moviesCSV = header +
	`237000000,"[{""id"": 28, ""name"": ""Action""}, {""id"": 12, ""name"": ""Adventure""}]",http://www.avatarmovie.com/,19995,"[{""id"": 1463, ""name"": ""culture clash""}]",en,Avatar,"In the 22nd century, a paraplegic Marine...",150.437577,"[{""name"": ""Ingenious Film Partners"", ""id"": 289}]","[]",2009-12-10,2787965087,162,"[]",Released,Enter the World of Pandora.,Avatar,7.2,11800
300000000,"[{""id"": 12, ""name"": ""Adventure""}]",,285,not-json,en,Pirates of the Caribbean: At World's End,"Captain Barbossa, long believed to be dead...",139.082615,"[]","[]",2007-05-19,961000000,169,"[]",Released,,Pirates of the Caribbean: At World's End,6.9,4500
-5,"[]",,999,"[]",en,Broken,,0,"[]","[]",,0,,"[]",Released,,Broken,0,0
abc,"[]",,1000,"[]",en,Odd Budget,,0,"[]","[]",,0,,"[]",Released,,Odd Budget,n/a,3
0,"[]",,19995,"[]",en,Avatar Again,,0,"[]","[]",,0,,"[]",Released,,Avatar Again,0,0
0,"[]",,not-an-id,"[]",en,Nope,,0,"[]","[]",,0,,"[]",Released,,Nope,0,0
245000000,"[""Action"", ""Crime""]",,206647
`

func TestLoadCSV(t *testing.T) {
	Convey("Given a TMDB style CSV", t, func() {
		_ = logging.Init()
		ctx := context.Background()

		records, report, err := dataset.LoadCSV(ctx, strings.NewReader(moviesCSV))

		Convey("Then well-formed rows are loaded in order", func() {
			So(err, ShouldBeNil)
			ids := make([]int64, len(records))
			for i, r := range records {
				ids[i] = r.ID
			}
			So(ids, ShouldResemble, []int64{19995, 285, 1000, 206647})
		})

		Convey("And embedded JSON sets become names", func() {
			avatar := records[0]
			So(avatar.Title, ShouldEqual, "Avatar")
			So(avatar.Genres, ShouldResemble, []string{"Action", "Adventure"})
			So(avatar.Keywords, ShouldResemble, []string{"culture clash"})
			So(avatar.ProductionCompanies, ShouldResemble, []string{"Ingenious Film Partners"})
			So(avatar.Budget, ShouldEqual, 237000000)
			So(avatar.Homepage, ShouldEqual, "http://www.avatarmovie.com/")
			So(avatar.ReleaseDate, ShouldEqual, "2009-12-10")
			So(avatar.VoteAverage, ShouldEqual, 7.2)
			So(avatar.VoteCount, ShouldEqual, 11800)
			So(avatar.OriginalLanguage, ShouldEqual, "en")
		})

		Convey("And malformed cells become empty values", func() {
			pirates := records[1]
			So(pirates.Keywords, ShouldBeEmpty)
			So(pirates.Homepage, ShouldEqual, "")

			odd := records[2]
			So(odd.Budget, ShouldEqual, 0)
			So(odd.VoteAverage, ShouldEqual, 0)
			So(odd.VoteCount, ShouldEqual, 3)
		})

		Convey("And short rows and plain string arrays are accepted", func() {
			last := records[3]
			So(last.Genres, ShouldResemble, []string{"Action", "Crime"})
			So(last.Title, ShouldEqual, "")
			So(last.Budget, ShouldEqual, 245000000)
		})

		Convey("And the report accounts for every row", func() {
			So(report.Rows, ShouldEqual, 7)
			So(report.Loaded, ShouldEqual, 4)
			So(report.Skipped, ShouldEqual, 3)
			So(report.Duplicates, ShouldEqual, 1)
			So(report.Defaulted, ShouldEqual, 3)
			So(report.Errors, ShouldHaveLength, 3)
		})

		Convey("And skipped rows carry their reason", func() {
			var negative, invalid, duplicate bool
			for _, e := range report.Errors {
				switch {
				case errors.Is(e, dataset.ErrNegativeBudget):
					negative = e.ID == "999"
				case errors.Is(e, dataset.ErrInvalidID):
					invalid = e.ID == "not-an-id"
				case errors.Is(e, dataset.ErrDuplicateID):
					duplicate = e.ID == "19995" && e.Line == 6
				}
			}
			So(negative, ShouldBeTrue)
			So(invalid, ShouldBeTrue)
			So(duplicate, ShouldBeTrue)
		})
	})

	Convey("Given a CSV without an id column", t, func() {
		_, _, err := dataset.LoadCSV(context.Background(), strings.NewReader("title,budget\nAvatar,1\n"))

		Convey("Then the load fails", func() {
			So(errors.Is(err, dataset.ErrMissingColumn), ShouldBeTrue)
		})
	})

	Convey("Given an empty input", t, func() {
		_, _, err := dataset.LoadCSV(context.Background(), strings.NewReader(""))

		Convey("Then the load fails", func() {
			So(errors.Is(err, dataset.ErrMissingColumn), ShouldBeTrue)
		})
	})

	Convey("Given a header with a byte order mark and odd casing", t, func() {
		records, _, err := dataset.LoadCSV(context.Background(), strings.NewReader("\ufeffID, Title \n7,Seven\n"))

		Convey("Then columns still resolve", func() {
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 1)
			So(records[0].Title, ShouldEqual, "Seven")
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := dataset.LoadCSV(ctx, strings.NewReader(moviesCSV))

		Convey("Then the load stops", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestSQLiteRoundTrip(t *testing.T) {
	Convey("Given records written to a SQLite database", t, func() {
		_ = logging.Init()
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "movies.db")

		written := []model.Record{
			{ID: 19995, Title: "Avatar", Homepage: "http://www.avatarmovie.com/", Genres: []string{"Action", "Adventure"},
				Keywords: []string{"culture clash"}, ProductionCompanies: []string{"Lightstorm Entertainment"},
				Budget: 237000000, ReleaseDate: "2009-12-10", VoteAverage: 7.2, VoteCount: 11800, OriginalLanguage: "en"},
			{ID: 5, Title: "Four Rooms"},
			{ID: 5, Title: "Four Rooms again"},
		}
		So(dataset.WriteSQLite(ctx, path, written), ShouldBeNil)

		Convey("When loading it back", func() {
			records, report, err := dataset.LoadSQLite(ctx, path)

			Convey("Then every field survives", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 2)
				So(records[0], ShouldResemble, written[0])
				So(records[1].Title, ShouldEqual, "Four Rooms")
				So(records[1].Genres, ShouldBeNil)
			})

			Convey("And duplicates are skipped", func() {
				So(report.Duplicates, ShouldEqual, 1)
				So(report.Source, ShouldEqual, path)
			})
		})

		Convey("When opened by extension", func() {
			records, _, err := dataset.Open(ctx, path)

			Convey("Then the SQLite reader is used", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 2)
			})
		})
	})

	Convey("Given a database without a movies table", t, func() {
		path := filepath.Join(t.TempDir(), "empty.sqlite")
		So(os.WriteFile(path, nil, 0o600), ShouldBeNil)
		_, _, err := dataset.LoadSQLite(context.Background(), path)

		Convey("Then the load fails", func() {
			So(errors.Is(err, dataset.ErrMissingColumn), ShouldBeTrue)
		})
	})

	Convey("Given a database path that does not exist", t, func() {
		path := filepath.Join(t.TempDir(), "nope.db")
		_, _, err := dataset.Open(context.Background(), path)

		Convey("Then the missing file is reported", func() {
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})

		Convey("And no file is created", func() {
			_, statErr := os.Stat(path)
			So(errors.Is(statErr, os.ErrNotExist), ShouldBeTrue)
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given dataset paths", t, func() {
		_ = logging.Init()
		ctx := context.Background()
		dir := t.TempDir()

		Convey("When the file is a CSV", func() {
			path := filepath.Join(dir, "movies.CSV")
			So(os.WriteFile(path, []byte(moviesCSV), 0o600), ShouldBeNil)
			records, report, err := dataset.Open(ctx, path)

			Convey("Then it is read as CSV", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 4)
				So(report.Source, ShouldEqual, path)
			})
		})

		Convey("When the CSV file is missing", func() {
			_, _, err := dataset.Open(ctx, filepath.Join(dir, "missing.csv"))

			Convey("Then the open error is returned", func() {
				So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
			})
		})

		Convey("When the extension is unknown", func() {
			_, _, err := dataset.Open(ctx, filepath.Join(dir, "movies.json"))

			Convey("Then the format is rejected", func() {
				So(errors.Is(err, dataset.ErrUnsupportedFormat), ShouldBeTrue)
			})
		})
	})
}
