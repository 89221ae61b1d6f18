// Package repository holds the loaded movie catalog.
package repository

import (
	"context"
	"time"

	"github.com/okian/reelsim/internal/domain/model"
)

// Snapshot describes the catalog currently served.
type Snapshot struct {
	Source   string
	Count    int
	LoadedAt time.Time
	// Version increases with every Replace and is unique across restarts.
	// Zero means nothing was loaded yet.
	Version uint64
}

// Store provides read access to an immutable catalog snapshot and a way to
// swap it as a whole.
type Store interface {
	// Replace publishes a new snapshot. Readers holding the old one are unaffected.
	Replace(ctx context.Context, records []model.Record, source string) error

	// Get returns the record with id. Returns ErrNotFound if it is unknown.
	// With duplicate ids the first loaded record wins.
	Get(ctx context.Context, id int64) (*model.Record, error)

	// All returns every record in load order. The slice is shared and must
	// not be modified.
	All(ctx context.Context) []model.Record

	// List returns up to limit records starting at offset, in load order.
	List(ctx context.Context, offset, limit int) ([]model.Record, error)

	// Search pages through the records whose title contains query, ignoring
	// case, in load order. An empty query matches every record.
	Search(ctx context.Context, query string, offset, limit int) ([]model.Record, error)

	// Count returns the number of records.
	Count(ctx context.Context) int

	// Info describes the current snapshot.
	Info(ctx context.Context) Snapshot
}
