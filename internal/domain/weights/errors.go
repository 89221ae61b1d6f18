package weights

import "errors"

// Sentinel error kinds for weight configuration.
var (
	ErrAllZero          = errors.New("all attribute weights are zero")
	ErrNegativeWeight   = errors.New("attribute weight must be a non-negative finite number")
	ErrUnknownAttribute = errors.New("unknown attribute")
)
