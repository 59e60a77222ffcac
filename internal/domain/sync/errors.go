package sync

import "errors"

// Common sync errors
var (
	// ErrMalformedPayload is returned when a feed payload fails to decode or
	// validate. The store and the persisted version marker are left
	// untouched; the caller retries later with the same marker.
	ErrMalformedPayload = errors.New("malformed feed payload")
	// ErrPersistence is returned when the payload applied in memory but some
	// part of it could not be written to device storage.
	ErrPersistence = errors.New("failed to persist applied payload")
)
