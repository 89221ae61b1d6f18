package engine

import "errors"

// Query outcomes other than a ranked result.
var (
	// ErrConfiguration reports an unusable weight configuration. It is
	// returned before any candidate is scored.
	ErrConfiguration = errors.New("invalid similarity configuration")

	// ErrEmptyCandidateSet reports that no candidate other than the
	// reference was available. Callers treat it as an empty result.
	ErrEmptyCandidateSet = errors.New("no candidates to compare against")

	// ErrNoReference reports a query without a reference record.
	ErrNoReference = errors.New("reference record is required")
)
