package schedule

// Snapshot is the persisted image of the store: everything needed to restore
// the schedule after a restart.
type Snapshot struct {
	Events      []Event
	Categories  []Category
	SelectedPks []string
	Version     int64
}

// StateRepository is the flat on-device persistence port for the schedule.
// Individual records are stored under string keys in a round-trippable
// encoding; the exact format is not load-bearing.
//
// Write failures mean the current session stays correct in memory but the
// change will not survive a restart; callers report them and do not retry.
type StateRepository interface {
	// SaveEvent persists one event record, keyed by pk.
	SaveEvent(e Event) error
	// DeleteEvent removes a persisted event record.
	DeleteEvent(pk string) error
	// SaveCategory persists one category record, keyed by pk.
	SaveCategory(c Category) error
	// DeleteCategory removes a persisted category record.
	DeleteCategory(pk string) error
	// SaveSelectedPks persists the full set of selected primary keys.
	SaveSelectedPks(pks []string) error
	// SaveVersion persists the last-applied sync version marker.
	SaveVersion(v int64) error
	// Load restores the full snapshot. A fresh store yields an empty
	// snapshot, not an error.
	Load() (Snapshot, error)
}
