package schedule

import "errors"

// Common schedule errors
var (
	// ErrEventNotFound is returned when an operation references a pk the
	// store has never seen.
	ErrEventNotFound = errors.New("event not found")
	// ErrEmptyPk is returned when a record arrives without a primary key.
	ErrEmptyPk = errors.New("empty primary key")
	// ErrEmptyName is returned when a record arrives without a name.
	ErrEmptyName = errors.New("empty name")
	// ErrMissingTime is returned when an event record lacks a start or end.
	ErrMissingTime = errors.New("missing start or end time")
	// ErrInvalidTimeRange is returned when an event ends before it starts.
	ErrInvalidTimeRange = errors.New("end time must not be before start time")
)
