package cache

import "errors"

var (
	// ErrMiss is returned when no cached result exists for a key.
	ErrMiss = errors.New("cache miss")
	// ErrClosed is returned by a cache used after Close.
	ErrClosed = errors.New("cache closed")
)
