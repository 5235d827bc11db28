package store

import "errors"

var (
	// ErrUnavailable indicates the primary store is unconfigured or
	// unreachable. Callers degrade to the flat-file fallback.
	ErrUnavailable = errors.New("store: primary store unavailable")

	// ErrTimeout indicates a primary-store call exceeded its deadline.
	ErrTimeout = errors.New("store: operation timed out")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("store: record not found")
)
