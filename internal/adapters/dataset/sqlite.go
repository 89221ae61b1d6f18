package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/reelsim/internal/domain/model"
)

// sqliteColumns is the column order of the movies table.
var sqliteColumns = []string{
	colID, colTitle, colHomepage, colGenres, colKeywords, colProductionCompanies,
	colBudget, colReleaseDate, colVoteAverage, colVoteCount, colOverview, colOriginalLanguage,
}

const createMoviesTable = `CREATE TABLE IF NOT EXISTS movies (
	id                   INTEGER,
	title                TEXT,
	homepage             TEXT,
	genres               TEXT,
	keywords             TEXT,
	production_companies TEXT,
	budget               REAL,
	release_date         TEXT,
	vote_average         REAL,
	vote_count           INTEGER,
	overview             TEXT,
	original_language    TEXT
)`

// LoadSQLite reads records from the movies table of the SQLite database at
// path, in rowid order. Set columns hold the same JSON arrays as the CSV.
func LoadSQLite(ctx context.Context, path string, opts ...Option) ([]model.Record, Report, error) {
	ld := newLoader(path, opts...)

	// the driver would create a missing file
	if _, err := os.Stat(path); err != nil {
		return nil, ld.report, fmt.Errorf("open dataset: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ld.report, fmt.Errorf("open sqlite: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := checkColumns(ctx, db); err != nil {
		return nil, ld.report, err
	}

	q := "SELECT " + strings.Join(sqliteColumns, ", ") + " FROM movies ORDER BY rowid"
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, ld.report, fmt.Errorf("query movies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.Record
	cells := make([]sql.NullString, len(sqliteColumns))
	dest := make([]any, len(cells))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for line := 1; rows.Next(); line++ {
		if err := rows.Scan(dest...); err != nil {
			return nil, ld.report, fmt.Errorf("scan row %d: %w", line, err)
		}
		row := make(rawRow, len(sqliteColumns))
		for i, name := range sqliteColumns {
			row[name] = cells[i].String
		}
		records = ld.add(ctx, records, line, row)
	}
	if err := rows.Err(); err != nil {
		return nil, ld.report, fmt.Errorf("iterate movies: %w", err)
	}

	return records, ld.finish(ctx), nil
}

// checkColumns verifies the movies table exists with the required columns.
func checkColumns(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info(movies)")
	if err != nil {
		return fmt.Errorf("inspect movies table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	present := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("inspect movies table: %w", err)
		}
		present[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect movies table: %w", err)
	}
	if len(present) == 0 {
		return fmt.Errorf("%w: table movies not found", ErrMissingColumn)
	}
	for _, col := range sqliteColumns {
		if !present[col] {
			return fmt.Errorf("%w: movies.%s", ErrMissingColumn, col)
		}
	}
	return nil
}

// WriteSQLite stores records in the movies table of the database at path,
// creating the table when needed. Set values are written as JSON arrays of
// named objects so LoadSQLite reads them back unchanged.
func WriteSQLite(ctx context.Context, path string, records []model.Record) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, createMoviesTable); err != nil {
		return fmt.Errorf("create movies table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(sqliteColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO movies ("+strings.Join(sqliteColumns, ", ")+") VALUES ("+placeholders+")")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range records {
		r := &records[i]
		genres, err := namedJSON(r.Genres)
		if err != nil {
			return err
		}
		keywords, err := namedJSON(r.Keywords)
		if err != nil {
			return err
		}
		companies, err := namedJSON(r.ProductionCompanies)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Title, r.Homepage, genres, keywords, companies,
			r.Budget, r.ReleaseDate, r.VoteAverage, r.VoteCount, r.Overview, r.OriginalLanguage,
		); err != nil {
			return fmt.Errorf("insert record %s: %w", strconv.FormatInt(r.ID, 10), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type named struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func namedJSON(values []string) (string, error) {
	out := make([]named, len(values))
	for i, v := range values {
		out[i] = named{ID: i + 1, Name: v}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode set: %w", err)
	}
	return string(b), nil
}
