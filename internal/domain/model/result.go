package model

import (
	"math"

	"github.com/okian/reelsim/internal/domain/weights"
)

// ScoredCandidate pairs a candidate with its composite score. It lives only
// for the duration of one query.
type ScoredCandidate struct {
	Record    *Record
	Score     float64
	Breakdown map[weights.Attribute]float64
	// Index is the candidate's position in the query input, used as the
	// last tie-breaker when identifiers repeat.
	Index int
}

// Match is one entry of a ranked result.
type Match struct {
	Record    *Record
	Score     float64 // composite score in [0,1]
	Breakdown map[weights.Attribute]float64
}

// Percent returns the score scaled to [0,100], unrounded.
func (m Match) Percent() float64 {
	return m.Score * 100
}

// RoundedPercent returns the percentage rounded to the nearest integer,
// the display convention of the HTTP and CLI front ends.
func (m Match) RoundedPercent() int {
	return int(math.Round(m.Percent()))
}

// RankedResult is the ordered output of a query, best match first.
type RankedResult []Match

// IDs returns the record identifiers in rank order.
func (r RankedResult) IDs() []int64 {
	ids := make([]int64, len(r))
	for i, m := range r {
		ids[i] = m.Record.ID
	}
	return ids
}
