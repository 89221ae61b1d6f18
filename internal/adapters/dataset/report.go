package dataset

import (
	"fmt"
	"time"
)

// maxRowErrors caps how many skipped rows a Report describes individually.
const maxRowErrors = 50

// RowError describes one skipped row.
type RowError struct {
	Line int // 1-based, header included for CSV; row number for SQLite
	ID   string
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d (id %q): %v", e.Line, e.ID, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Report summarizes a load.
type Report struct {
	Source     string
	Rows       int // data rows read
	Loaded     int
	Skipped    int // rows dropped, duplicates included
	Duplicates int
	// Defaulted counts cells that could not be parsed and were replaced by
	// an empty value.
	Defaulted int
	Errors    []RowError
	Took      time.Duration
}

func (r *Report) skip(line int, id string, err error) {
	r.Skipped++
	if len(r.Errors) < maxRowErrors {
		r.Errors = append(r.Errors, RowError{Line: line, ID: id, Err: err})
	}
}
