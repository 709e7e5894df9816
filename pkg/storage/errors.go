package storage

import "errors"

// Common errors returned by storage implementations.
var (
	// ErrClosed is returned when a record is appended after the sink was closed.
	ErrClosed = errors.New("sink closed")
)
