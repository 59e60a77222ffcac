package schedule

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Service is the single serialized owner of the event store. Every mutation
// and read goes through its mutex; the store itself carries no locking.
// Observer handlers run while the lock is held and must not call back into
// the service.
type Service struct {
	mu     sync.Mutex
	store  *Store
	state  StateRepository
	logger *zap.Logger
}

// NewService creates a schedule service over an empty store.
func NewService(state StateRepository, logger *zap.Logger) *Service {
	return &Service{
		store:  NewStore(),
		state:  state,
		logger: logger,
	}
}

// Load restores the persisted snapshot into the store. Called once at boot,
// before observers are registered; no change notifications are emitted.
func (s *Service) Load() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.state.Load()
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}
	for _, e := range snap.Events {
		s.store.upsertEvent(e)
	}
	for _, c := range snap.Categories {
		s.store.UpsertCategory(c)
	}
	for _, pk := range snap.SelectedPks {
		// A selected pk whose event no longer exists in the snapshot is
		// dropped: selection cannot outlive the event.
		if _, ok := s.store.EventByPk(pk); ok {
			s.store.selected[pk] = struct{}{}
		}
	}
	s.logger.Info("Schedule snapshot restored",
		zap.Int("events", len(snap.Events)),
		zap.Int("categories", len(snap.Categories)),
		zap.Int("selected", len(snap.SelectedPks)),
		zap.Int64("version", snap.Version),
	)
	return snap.Version, nil
}

// Register adds a store observer and returns its unregister function.
func (s *Service) Register(o Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	unregister := s.store.Register(o)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		unregister()
	}
}

// Update runs fn against the store under the service lock. This is the batch
// entry point for the sync reconciler; user-facing operations use the
// dedicated methods below.
func (s *Service) Update(fn func(*Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.store)
}

// SelectEvent adds the event to the user's schedule and persists the new
// selection set. The in-memory selection sticks even when persistence fails;
// the error is surfaced so the caller knows the choice will not survive a
// restart.
func (s *Service) SelectEvent(pk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SelectEvent(pk); err != nil {
		return err
	}
	if err := s.state.SaveSelectedPks(s.store.SelectedPks()); err != nil {
		s.logger.Error("Failed to persist selection", zap.String("pk", pk), zap.Error(err))
		return fmt.Errorf("persist selection: %w", err)
	}
	return nil
}

// DeselectEvent removes the event from the user's schedule and persists the
// new selection set. Unknown pks are ignored.
func (s *Service) DeselectEvent(pk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.DeselectEvent(pk)
	if err := s.state.SaveSelectedPks(s.store.SelectedPks()); err != nil {
		s.logger.Error("Failed to persist selection", zap.String("pk", pk), zap.Error(err))
		return fmt.Errorf("persist selection: %w", err)
	}
	return nil
}

// EventsOn returns all events on the given date, chronologically ordered.
func (s *Service) EventsOn(date time.Time) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.EventsOn(date)
}

// SelectedEventsOn returns the user's selected events on the given date.
func (s *Service) SelectedEventsOn(date time.Time) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SelectedEventsOn(date)
}

// SelectedEvents returns every selected event ordered by start time.
func (s *Service) SelectedEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SelectedEvents()
}

// EventByPk looks up a single event.
func (s *Service) EventByPk(pk string) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.EventByPk(pk)
}

// IsSelected reports whether the event is on the user's schedule.
func (s *Service) IsSelected(pk string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.IsSelected(pk)
}

// Categories returns all known categories ordered by name.
func (s *Service) Categories() []Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Categories()
}

// Dates returns every date with at least one event, ascending.
func (s *Service) Dates() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Dates()
}
