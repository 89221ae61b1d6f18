// Package dataset loads movie records from CSV files and SQLite databases.
//
// Both sources share one row conversion: set-valued columns hold JSON arrays
// of {"id":..,"name":..} objects (plain string arrays are accepted too),
// unparsable cells become empty values, and a row is only skipped for an
// unusable id, a negative budget or an id already loaded.
package dataset

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/reelsim/internal/domain/dedupe"
	"github.com/okian/reelsim/internal/domain/model"
	"github.com/okian/reelsim/pkg/logger"
	"github.com/okian/reelsim/pkg/metrics"
)

// Column names shared by the CSV header and the SQLite table.
const (
	colID                  = "id"
	colTitle               = "title"
	colHomepage            = "homepage"
	colGenres              = "genres"
	colKeywords            = "keywords"
	colProductionCompanies = "production_companies"
	colBudget              = "budget"
	colReleaseDate         = "release_date"
	colVoteAverage         = "vote_average"
	colVoteCount           = "vote_count"
	colOverview            = "overview"
	colOriginalLanguage    = "original_language"
)

var requiredColumns = []string{colID, colTitle}

// Option applies a configuration option to a load.
type Option func(*loader)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(ld *loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithDedupeSize bounds the duplicate-id tracker. Zero or negative is unbounded.
func WithDedupeSize(n int) Option {
	return func(ld *loader) {
		ld.dedupeSize = n
	}
}

type loader struct {
	logger     logger.Logger
	dedupeSize int
	seen       dedupe.Deduper
	report     Report
	start      time.Time
}

func newLoader(source string, opts ...Option) *loader {
	ld := &loader{
		logger: logger.Get().Named("dataset"),
		start:  time.Now(),
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.dedupeSize != 0 {
		ld.seen = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(ld.dedupeSize))
	} else {
		ld.seen = dedupe.NewInMemoryDeduper()
	}
	ld.report.Source = source
	return ld
}

// rawRow is one source row with every cell as text.
type rawRow map[string]string

// add converts row and appends it to records, or records why it was skipped.
func (ld *loader) add(ctx context.Context, records []model.Record, line int, row rawRow) []model.Record {
	ld.report.Rows++

	idText := strings.TrimSpace(row[colID])
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		ld.reject(ctx, line, idText, fmt.Errorf("%w: %q", ErrInvalidID, idText))
		return records
	}

	budget, ok := parseFloat(row[colBudget])
	if !ok {
		ld.report.Defaulted++
	}
	if budget < 0 {
		ld.reject(ctx, line, idText, fmt.Errorf("%w: %v", ErrNegativeBudget, budget))
		return records
	}

	if ld.seen.SeenAndRecord(ctx, id) {
		ld.report.Duplicates++
		ld.reject(ctx, line, idText, ErrDuplicateID)
		return records
	}

	rec := model.Record{
		ID:                  id,
		Title:               row[colTitle],
		Homepage:            row[colHomepage],
		Genres:              ld.names(row[colGenres]),
		Keywords:            ld.names(row[colKeywords]),
		ProductionCompanies: ld.names(row[colProductionCompanies]),
		Budget:              budget,
		ReleaseDate:         strings.TrimSpace(row[colReleaseDate]),
		Overview:            row[colOverview],
		OriginalLanguage:    strings.TrimSpace(row[colOriginalLanguage]),
	}
	if v, ok := parseFloat(row[colVoteAverage]); ok {
		rec.VoteAverage = v
	} else {
		ld.report.Defaulted++
	}
	if v, ok := parseFloat(row[colVoteCount]); ok {
		rec.VoteCount = int64(v)
	} else {
		ld.report.Defaulted++
	}

	ld.report.Loaded++
	return append(records, rec.Normalize())
}

func (ld *loader) reject(ctx context.Context, line int, id string, err error) {
	ld.report.skip(line, id, err)
	ld.logger.Warn(ctx, "dataset row skipped",
		logger.String("source", ld.report.Source),
		logger.Int("line", line),
		logger.String("id", id),
		logger.Error(err),
	)
}

// names decodes a JSON array of named objects or of strings. Anything else
// yields an empty set.
func (ld *loader) names(cell string) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "[]" {
		return nil
	}

	var named []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(cell), &named); err == nil {
		out := make([]string, 0, len(named))
		for _, n := range named {
			out = append(out, n.Name)
		}
		return out
	}

	var plain []string
	if err := json.Unmarshal([]byte(cell), &plain); err == nil {
		return plain
	}

	ld.report.Defaulted++
	return nil
}

func (ld *loader) finish(ctx context.Context) Report {
	ld.report.Took = time.Since(ld.start)
	metrics.RecordDatasetRows(ld.report.Loaded, ld.report.Skipped)
	metrics.RecordDatasetLoadDuration(float64(ld.report.Took.Milliseconds()))
	ld.logger.Info(ctx, "dataset loaded",
		logger.String("source", ld.report.Source),
		logger.Int("rows", ld.report.Rows),
		logger.Int("loaded", ld.report.Loaded),
		logger.Int("skipped", ld.report.Skipped),
		logger.Int("duplicates", ld.report.Duplicates),
		logger.Int("defaulted", ld.report.Defaulted),
		logger.Duration("took", ld.report.Took),
	)
	return ld.report
}

// parseFloat reads a number cell. Empty cells are a valid zero; anything
// unparsable or non-finite is reported as not ok and reads as zero.
func parseFloat(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Open loads path, choosing the reader by file extension.
func Open(ctx context.Context, path string, opts ...Option) ([]model.Record, Report, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSVFile(ctx, path, opts...)
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(ctx, path, opts...)
	default:
		return nil, Report{Source: path}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
