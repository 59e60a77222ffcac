package schedule

// Change is a store change notification. Exactly one implementation exists
// per variant; observers type-switch on the value they receive.
type Change interface {
	change()
}

// EventsChanged signals that the all-events partition was mutated.
type EventsChanged struct {
	// Upserted holds events inserted or replaced by the mutation.
	Upserted []Event
	// DeletedPks holds primary keys removed by the mutation.
	DeletedPks []string
}

// SelectionChanged signals that a single event moved in or out of the
// selected partition.
type SelectionChanged struct {
	Event    Event
	Selected bool
}

// SyncCompleted signals that a full feed payload was applied and the
// persisted version marker advanced.
type SyncCompleted struct {
	Version int64
	// UpdatedSelected holds selected events whose fields changed.
	UpdatedSelected []Event
	// RemovedSelected holds selected events deleted by the payload.
	RemovedSelected []Event
}

func (EventsChanged) change()    {}
func (SelectionChanged) change() {}
func (SyncCompleted) change()    {}

// Observer receives store change notifications. Handlers run synchronously
// on the mutating caller's goroutine and must not block. An observer that is
// being torn down must call Unregister first or it will keep receiving
// notifications into stale state.
type Observer interface {
	OnStoreChange(Change)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Change)

// OnStoreChange implements Observer.
func (f ObserverFunc) OnStoreChange(c Change) { f(c) }
