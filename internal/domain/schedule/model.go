package schedule

import (
	"time"
)

// StudentType identifies which "required" flag applies to the current student.
type StudentType string

const (
	StudentTypeFirstYear StudentType = "FirstYear"
	StudentTypeTransfer  StudentType = "Transfer"
)

// Event represents one schedulable orientation activity. Events are value
// objects: a later feed update for the same Pk replaces the record wholesale.
type Event struct {
	Pk                string    `json:"pk"`
	Name              string    `json:"name"`
	Caption           string    `json:"caption"`
	Description       string    `json:"description"`
	URL               string    `json:"url,omitempty"`
	ImageURL          string    `json:"image_url,omitempty"`
	Location          string    `json:"location"`
	Longitude         float64   `json:"longitude"`
	Latitude          float64   `json:"latitude"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	Categories        []string  `json:"categories"`
	FirstYearRequired bool      `json:"first_year_required"`
	TransferRequired  bool      `json:"transfer_required"`
}

// Category is a named tag used to filter and group events.
type Category struct {
	Pk   string `json:"pk"`
	Name string `json:"name"`
}

// Date returns the calendar date partition key for the event: midnight UTC of
// its start instant.
func (e Event) Date() time.Time {
	return DateOf(e.Start)
}

// RequiredFor reports whether the event is flagged required for the given
// student type.
func (e Event) RequiredFor(st StudentType) bool {
	switch st {
	case StudentTypeFirstYear:
		return e.FirstYearRequired
	case StudentTypeTransfer:
		return e.TransferRequired
	}
	return false
}

// HasCategory reports whether the event carries the given category pk.
func (e Event) HasCategory(pk string) bool {
	for _, c := range e.Categories {
		if c == pk {
			return true
		}
	}
	return false
}

// Validate checks the invariants a feed record must satisfy before it may
// enter the store.
func (e Event) Validate() error {
	if e.Pk == "" {
		return ErrEmptyPk
	}
	if e.Name == "" {
		return ErrEmptyName
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrMissingTime
	}
	if e.End.Before(e.Start) {
		return ErrInvalidTimeRange
	}
	return nil
}

// Validate checks category record invariants.
func (c Category) Validate() error {
	if c.Pk == "" {
		return ErrEmptyPk
	}
	if c.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// DateOf truncates an instant to its calendar date partition key (midnight
// UTC).
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidStudentType reports whether s is a recognized student type.
func ValidStudentType(s StudentType) bool {
	switch s {
	case StudentTypeFirstYear, StudentTypeTransfer:
		return true
	}
	return false
}
