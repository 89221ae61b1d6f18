// Package dedupe tracks record identifiers already seen while loading a catalog.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// defaultMaxSize covers the largest public movie datasets with room to spare.
const defaultMaxSize = 1 << 20

// Deduper records seen identifiers so a loader keeps only the first record
// for each one.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id int64) bool

	// Unrecord forgets id, used when a recorded row is rejected afterwards.
	Unrecord(ctx context.Context, id int64)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map and an insertion-ordered list.
// Bounded mode (maxSize > 0) evicts the oldest id once full; unbounded mode
// (maxSize <= 0) keeps everything.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[int64]*list.Element
	order   *list.List // oldest at front, bounded mode only
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[int64]*list.Element)
	if d.maxSize > 0 {
		d.order = list.New()
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.order == nil {
		d.seen[id] = nil
		d.size.Add(1)
		return false
	}

	if len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[id] = d.order.PushBack(id)
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, exists := d.seen[id]
	if !exists {
		return
	}
	delete(d.seen, id)
	if el != nil {
		d.order.Remove(el)
	}
	d.size.Add(-1)
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.seen, front.Value.(int64))
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
