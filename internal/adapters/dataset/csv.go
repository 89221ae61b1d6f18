package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/reelsim/internal/domain/model"
)

// LoadCSVFile loads the CSV file at path.
func LoadCSVFile(ctx context.Context, path string, opts ...Option) ([]model.Record, Report, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, Report{Source: path}, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return loadCSV(ctx, f, path, opts...)
}

// LoadCSV reads a TMDB-style movie CSV with a header row. Only the id and
// title columns are required; rows may have fewer or more fields than the
// header.
func LoadCSV(ctx context.Context, r io.Reader, opts ...Option) ([]model.Record, Report, error) {
	return loadCSV(ctx, r, "csv", opts...)
}

func loadCSV(ctx context.Context, r io.Reader, source string, opts ...Option) ([]model.Record, Report, error) {
	ld := newLoader(source, opts...)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ld.report, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, ld.report, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, ld.report, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var records []model.Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, ld.report, fmt.Errorf("load cancelled: %w", err)
		}
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ld.report, fmt.Errorf("read rows: %w", err)
		}
		line, _ := cr.FieldPos(0)

		row := make(rawRow, len(index))
		for name, i := range index {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		records = ld.add(ctx, records, line, row)
	}

	return records, ld.finish(ctx), nil
}
