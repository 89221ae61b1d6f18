package service

import "errors"

var (
	// ErrInvalidK is returned when k is outside [1, max k].
	ErrInvalidK = errors.New("k out of range")
	// ErrNotStarted is returned by queries made before Start.
	ErrNotStarted = errors.New("service not started")
)
