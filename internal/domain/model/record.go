// Package model contains domain models passed between layers.
package model

import (
	"strings"

	"github.com/okian/reelsim/internal/domain/weights"
)

// Record is one catalog item. Records are immutable once loaded; the
// engine only ever reads them.
type Record struct {
	ID                  int64
	Title               string
	Homepage            string   // optional, empty when unknown
	Genres              []string // unordered, no duplicates
	Keywords            []string
	ProductionCompanies []string
	Budget              float64 // zero means unknown

	// Display-only fields, never compared.
	ReleaseDate      string
	VoteAverage      float64
	VoteCount        int64
	Overview         string
	OriginalLanguage string
}

// Text returns the text value compared for a text attribute.
func (r *Record) Text(a weights.Attribute) string {
	switch a {
	case weights.Title:
		return r.Title
	case weights.Homepage:
		return r.Homepage
	default:
		return ""
	}
}

// Set returns the set value compared for a set attribute.
func (r *Record) Set(a weights.Attribute) []string {
	switch a {
	case weights.Genres:
		return r.Genres
	case weights.Keywords:
		return r.Keywords
	case weights.ProductionCompanies:
		return r.ProductionCompanies
	default:
		return nil
	}
}

// Number returns the numeric value compared for a numeric attribute.
// Negative budgets are a loader precondition violation; a negative value
// that slips through is treated as unknown.
func (r *Record) Number(a weights.Attribute) float64 {
	if a == weights.Budget && r.Budget > 0 {
		return r.Budget
	}
	return 0
}

// Normalize returns a copy with set values trimmed, empty entries dropped
// and case-insensitive duplicates removed, keeping first occurrence.
func (r Record) Normalize() Record {
	r.Title = strings.TrimSpace(r.Title)
	r.Homepage = strings.TrimSpace(r.Homepage)
	r.Genres = uniq(r.Genres)
	r.Keywords = uniq(r.Keywords)
	r.ProductionCompanies = uniq(r.ProductionCompanies)
	return r
}

func uniq(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
