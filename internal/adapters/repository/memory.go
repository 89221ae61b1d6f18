package repository

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/okian/reelsim/internal/domain/model"
	"github.com/okian/reelsim/pkg/metrics"
)

const defaultMaxPageSize = 500

type snapshot struct {
	records  []model.Record
	byID     map[int64]int
	titles   []string // lowercased, parallel to records
	source   string
	loadedAt time.Time
	version  uint64
}

// MemoryCatalog implements Store over an atomically swapped snapshot.
// Reads never lock.
type MemoryCatalog struct {
	current     atomic.Pointer[snapshot]
	maxPageSize int
}

// NewMemoryCatalog creates an empty catalog with configuration options.
func NewMemoryCatalog(opts ...Option) *MemoryCatalog {
	c := &MemoryCatalog{
		maxPageSize: defaultMaxPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.current.Store(&snapshot{byID: map[int64]int{}})
	return c
}

// Replace publishes records as the new snapshot. The catalog keeps the
// slice; callers hand over ownership.
func (c *MemoryCatalog) Replace(_ context.Context, records []model.Record, source string) error {
	byID := make(map[int64]int, len(records))
	titles := make([]string, len(records))
	for i := range records {
		if _, dup := byID[records[i].ID]; !dup {
			byID[records[i].ID] = i
		}
		titles[i] = strings.ToLower(records[i].Title)
	}
	now := time.Now()
	version := uint64(now.UnixNano()) //nolint:gosec // wall clock is positive
	if prev := c.current.Load().version; version <= prev {
		version = prev + 1
	}
	c.current.Store(&snapshot{
		records:  records,
		byID:     byID,
		titles:   titles,
		source:   source,
		loadedAt: now,
		version:  version,
	})
	metrics.UpdateCatalogSize(len(records))
	return nil
}

func (c *MemoryCatalog) Get(_ context.Context, id int64) (*model.Record, error) {
	s := c.current.Load()
	i, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return &s.records[i], nil
}

func (c *MemoryCatalog) All(_ context.Context) []model.Record {
	return c.current.Load().records
}

func (c *MemoryCatalog) List(_ context.Context, offset, limit int) ([]model.Record, error) {
	if err := c.checkPage(offset, limit); err != nil {
		return nil, err
	}
	records := c.current.Load().records
	if offset >= len(records) {
		return []model.Record{}, nil
	}
	end := min(offset+limit, len(records))
	return records[offset:end:end], nil
}

func (c *MemoryCatalog) Search(ctx context.Context, query string, offset, limit int) ([]model.Record, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c.List(ctx, offset, limit)
	}
	if err := c.checkPage(offset, limit); err != nil {
		return nil, err
	}
	s := c.current.Load()
	out := make([]model.Record, 0, limit)
	for i, title := range s.titles {
		if !strings.Contains(title, query) {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		out = append(out, s.records[i])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (c *MemoryCatalog) checkPage(offset, limit int) error {
	if limit <= 0 || limit > c.maxPageSize {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidLimit, limit, c.maxPageSize)
	}
	if offset < 0 {
		return fmt.Errorf("%w: negative offset %d", ErrInvalidLimit, offset)
	}
	return nil
}

func (c *MemoryCatalog) Count(_ context.Context) int {
	return len(c.current.Load().records)
}

func (c *MemoryCatalog) Info(_ context.Context) Snapshot {
	s := c.current.Load()
	return Snapshot{Source: s.source, Count: len(s.records), LoadedAt: s.loadedAt, Version: s.version}
}
