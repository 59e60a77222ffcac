package schedule

import (
	"sort"
	"time"
)

// Store is the canonical in-memory table of events and categories plus the
// user's selection state. Events live in date partitions (midnight UTC of
// their start), ordered chronologically; a pk index avoids scanning every
// partition on lookups and deletes.
//
// The store performs no internal locking: all access must come from a single
// serialized owner (the schedule Service). Observers are notified
// synchronously on the mutating call.
type Store struct {
	byDate     map[time.Time][]Event
	byPk       map[string]Event
	selected   map[string]struct{}
	categories map[string]Category

	observers map[int]Observer
	nextObsID int
}

// NewStore creates an empty event store.
func NewStore() *Store {
	return &Store{
		byDate:     make(map[time.Time][]Event),
		byPk:       make(map[string]Event),
		selected:   make(map[string]struct{}),
		categories: make(map[string]Category),
		observers:  make(map[int]Observer),
	}
}

// Register adds an observer and returns its unregister function. The caller
// must invoke the returned function before the observer is torn down.
func (s *Store) Register(o Observer) func() {
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = o
	return func() {
		delete(s.observers, id)
	}
}

func (s *Store) notify(c Change) {
	for _, o := range s.observers {
		o.OnStoreChange(c)
	}
}

// UpsertEvent inserts the event into the partition for its start date, or
// replaces the existing event with the same pk wholesale. If an edit moved
// the event to a different date, the old partition entry is removed and the
// event is re-inserted at its new date; selection follows the event.
// Idempotent: applying the same record twice leaves the store unchanged.
func (s *Store) UpsertEvent(e Event) {
	s.upsertEvent(e)
	s.notify(EventsChanged{Upserted: []Event{e}})
}

// upsertEvent mutates without notifying; snapshot restore at boot must not
// wake observers.
func (s *Store) upsertEvent(e Event) {
	if prev, ok := s.byPk[e.Pk]; ok {
		s.removeFromDate(prev.Date(), e.Pk)
	}
	s.byPk[e.Pk] = e
	s.insertIntoDate(e)
}

// DeleteEvent removes the event with this pk from both partitions.
// No-op on an unknown pk.
func (s *Store) DeleteEvent(pk string) {
	if !s.deleteEvent(pk) {
		return
	}
	s.notify(EventsChanged{DeletedPks: []string{pk}})
}

func (s *Store) deleteEvent(pk string) bool {
	e, ok := s.byPk[pk]
	if !ok {
		return false
	}
	s.removeFromDate(e.Date(), pk)
	delete(s.byPk, pk)
	// Selection cannot outlive the event it selects.
	delete(s.selected, pk)
	return true
}

// SelectEvent adds the event with this pk to the selected partition.
// Returns ErrEventNotFound for a pk the store has never seen: selection
// cannot precede knowledge of the event.
func (s *Store) SelectEvent(pk string) error {
	e, ok := s.byPk[pk]
	if !ok {
		return ErrEventNotFound
	}
	if _, already := s.selected[pk]; already {
		return nil
	}
	s.selected[pk] = struct{}{}
	s.notify(SelectionChanged{Event: e, Selected: true})
	return nil
}

// DeselectEvent removes the pk from the selected partition. No-op if the pk
// is unknown or not selected.
func (s *Store) DeselectEvent(pk string) {
	e, ok := s.byPk[pk]
	if !ok {
		return
	}
	if _, was := s.selected[pk]; !was {
		return
	}
	delete(s.selected, pk)
	s.notify(SelectionChanged{Event: e, Selected: false})
}

// NotifySyncCompleted broadcasts payload completion to observers. Called by
// the sync reconciler once a whole payload has been applied.
func (s *Store) NotifySyncCompleted(c SyncCompleted) {
	s.notify(c)
}

// UpsertCategory inserts or replaces a category.
func (s *Store) UpsertCategory(c Category) {
	s.categories[c.Pk] = c
}

// DeleteCategory removes a category by pk. No-op on an unknown pk.
func (s *Store) DeleteCategory(pk string) {
	delete(s.categories, pk)
}

// EventsOn returns the chronologically ordered events on the given calendar
// date. Never nil.
func (s *Store) EventsOn(date time.Time) []Event {
	partition := s.byDate[DateOf(date)]
	out := make([]Event, len(partition))
	copy(out, partition)
	return out
}

// SelectedEventsOn returns the selected subset of EventsOn, in the same
// chronological order. Never nil.
func (s *Store) SelectedEventsOn(date time.Time) []Event {
	out := make([]Event, 0)
	for _, e := range s.byDate[DateOf(date)] {
		if _, ok := s.selected[e.Pk]; ok {
			out = append(out, e)
		}
	}
	return out
}

// EventByPk looks up a single event.
func (s *Store) EventByPk(pk string) (Event, bool) {
	e, ok := s.byPk[pk]
	return e, ok
}

// IsSelected reports whether the pk is in the selected partition.
func (s *Store) IsSelected(pk string) bool {
	_, ok := s.selected[pk]
	return ok
}

// SelectedPks returns the selected primary keys, sorted for determinism.
func (s *Store) SelectedPks() []string {
	out := make([]string, 0, len(s.selected))
	for pk := range s.selected {
		out = append(out, pk)
	}
	sort.Strings(out)
	return out
}

// SelectedEvents returns every selected event, ordered by start time.
func (s *Store) SelectedEvents() []Event {
	out := make([]Event, 0, len(s.selected))
	for pk := range s.selected {
		out = append(out, s.byPk[pk])
	}
	sortEvents(out)
	return out
}

// AllEvents returns every known event, ordered by start time.
func (s *Store) AllEvents() []Event {
	out := make([]Event, 0, len(s.byPk))
	for _, e := range s.byPk {
		out = append(out, e)
	}
	sortEvents(out)
	return out
}

// Dates returns every date that currently has at least one event, ascending.
func (s *Store) Dates() []time.Time {
	out := make([]time.Time, 0, len(s.byDate))
	for d := range s.byDate {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Categories returns all known categories, ordered by name.
func (s *Store) Categories() []Category {
	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Pk < out[j].Pk
	})
	return out
}

// CategoryByPk looks up a single category.
func (s *Store) CategoryByPk(pk string) (Category, bool) {
	c, ok := s.categories[pk]
	return c, ok
}

func (s *Store) insertIntoDate(e Event) {
	date := e.Date()
	partition := s.byDate[date]
	idx := sort.Search(len(partition), func(i int) bool {
		if !partition[i].Start.Equal(e.Start) {
			return partition[i].Start.After(e.Start)
		}
		return partition[i].Pk > e.Pk
	})
	partition = append(partition, Event{})
	copy(partition[idx+1:], partition[idx:])
	partition[idx] = e
	s.byDate[date] = partition
}

func (s *Store) removeFromDate(date time.Time, pk string) {
	partition := s.byDate[date]
	for i, e := range partition {
		if e.Pk == pk {
			s.byDate[date] = append(partition[:i], partition[i+1:]...)
			break
		}
	}
	if len(s.byDate[date]) == 0 {
		delete(s.byDate, date)
	}
}

func sortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].Pk < events[j].Pk
	})
}
