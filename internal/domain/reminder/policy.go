package reminder

import (
	"errors"
	"time"

	"github.com/cornell-dti/o-week-android-sub000/internal/domain/schedule"
)

// Policy selects which of the user's saved events produce reminders.
type Policy string

const (
	// PolicyAll reminds about every selected event.
	PolicyAll Policy = "All"
	// PolicyRequired reminds only about selected events flagged required for
	// the user's student type.
	PolicyRequired Policy = "Required"
	// PolicyNone disables reminders.
	PolicyNone Policy = "None"
)

// Common reminder errors
var (
	ErrInvalidPolicy      = errors.New("invalid reminder policy")
	ErrInvalidLeadTime    = errors.New("lead time must be non-negative")
	ErrInvalidStudentType = errors.New("invalid student type")
	ErrNoPreferences      = errors.New("no stored reminder preferences")
)

// Preferences holds the user's reminder configuration. LeadMinutes is how
// long before an event's start the reminder fires; 0 means at start.
type Preferences struct {
	Policy      Policy               `json:"policy"`
	LeadMinutes int                  `json:"lead_minutes"`
	StudentType schedule.StudentType `json:"student_type"`
}

// DefaultPreferences returns the configuration used before the user has
// chosen anything.
func DefaultPreferences() Preferences {
	return Preferences{
		Policy:      PolicyAll,
		LeadMinutes: 120,
		StudentType: schedule.StudentTypeFirstYear,
	}
}

// Lead returns the lead time as a duration.
func (p Preferences) Lead() time.Duration {
	return time.Duration(p.LeadMinutes) * time.Minute
}

// Validate checks the preference invariants.
func (p Preferences) Validate() error {
	if !ValidPolicy(p.Policy) {
		return ErrInvalidPolicy
	}
	if p.LeadMinutes < 0 {
		return ErrInvalidLeadTime
	}
	if !schedule.ValidStudentType(p.StudentType) {
		return ErrInvalidStudentType
	}
	return nil
}

// ValidPolicy reports whether p is a recognized policy.
func ValidPolicy(p Policy) bool {
	switch p {
	case PolicyAll, PolicyRequired, PolicyNone:
		return true
	}
	return false
}

// PreferenceRepository persists reminder preferences on device.
type PreferenceRepository interface {
	SavePreferences(p Preferences) error
	// LoadPreferences returns the stored preferences, or ErrNoPreferences
	// when nothing has been stored yet.
	LoadPreferences() (Preferences, error)
}
