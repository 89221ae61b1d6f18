// Package cache stores ranked recommendation results keyed by catalog
// version, reference, weights and k. It is owned by the service layer; the engine never sees it.
package cache

import (
	"context"
	"fmt"

	"github.com/okian/reelsim/internal/domain/weights"
)

// Key identifies one cached query.
type Key struct {
	// CatalogVersion ties the entry to the catalog snapshot it was computed
	// from; a reload changes it.
	CatalogVersion uint64
	ReferenceID    int64
	WeightsHash    uint64
	K              int
}

// NewKey builds the key for a query against reference with w and k on the
// catalog snapshot identified by version.
func NewKey(version uint64, referenceID int64, w weights.Config, k int) Key {
	return Key{CatalogVersion: version, ReferenceID: referenceID, WeightsHash: w.Hash(), K: k}
}

// String renders the key in its storage form.
func (k Key) String() string {
	return fmt.Sprintf("%s%x:%d:%016x:k%d", keyPrefix, k.CatalogVersion, k.ReferenceID, k.WeightsHash, k.K)
}

const keyPrefix = "reelsim:rec:"

// Entry is the cached form of one ranked match. Records are not cached;
// callers resolve ID against their catalog.
type Entry struct {
	ID        int64                         `json:"id"`
	Score     float64                       `json:"score"`
	Breakdown map[weights.Attribute]float64 `json:"breakdown,omitempty"`
}

// Cache stores ranked results.
type Cache interface {
	// Get returns the entries stored under key, or ErrMiss.
	Get(ctx context.Context, key Key) ([]Entry, error)
	Set(ctx context.Context, key Key, entries []Entry) error
	Close() error
}

// Nop is a Cache that stores nothing.
type Nop struct{}

// NewNop returns a disabled cache.
func NewNop() Nop { return Nop{} }

func (Nop) Get(context.Context, Key) ([]Entry, error) { return nil, ErrMiss }

func (Nop) Set(context.Context, Key, []Entry) error { return nil }

func (Nop) Close() error { return nil }
