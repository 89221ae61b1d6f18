package dataset

import "errors"

// Sentinel kinds for dataset errors. Row level kinds skip the row; the rest
// abort the load.
var (
	ErrNegativeBudget    = errors.New("negative budget")
	ErrInvalidID         = errors.New("invalid record id")
	ErrDuplicateID       = errors.New("duplicate record id")
	ErrMissingColumn     = errors.New("missing required column")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)
