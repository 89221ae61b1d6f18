package model

import "github.com/okian/reelsim/internal/domain/weights"

// Batch is a slice of one query's candidates, scored as a unit by a worker.
type Batch struct {
	QueryID    string
	Reference  *Record
	Candidates []Record
	// Offset is the position of Candidates[0] in the full candidate input.
	Offset  int
	Weights weights.Config
	// Results receives exactly one BatchResult. The sender never blocks:
	// the query owner sizes the channel for every batch it submits.
	Results chan<- BatchResult
}

// BatchResult carries the scored candidates of one batch. Self matches are
// already dropped.
type BatchResult struct {
	Offset int
	Scored []ScoredCandidate
}
