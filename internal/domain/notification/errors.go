package notification

import "errors"

// Common notification errors
var (
	// ErrNotFound is returned when a notification is not found
	ErrNotFound = errors.New("notification not found")
	// ErrNilNotification is returned when a nil notification is passed in
	ErrNilNotification = errors.New("notification cannot be nil")
)
