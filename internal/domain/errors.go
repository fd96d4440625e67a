package domain

import "errors"

var (
	// ErrExtraction is returned when the vision model call itself fails
	ErrExtraction = errors.New("vision extraction failed")

	// ErrSearch is returned when a single catalog search fails
	ErrSearch = errors.New("catalog search failed")

	// ErrCacheMiss is returned when no fresh entry exists for a fingerprint
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrStoreUnavailable is returned when the key-value store is unavailable
	ErrStoreUnavailable = errors.New("store unavailable")
)
