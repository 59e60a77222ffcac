package reminder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cornell-dti/o-week-android-sub000/internal/domain/schedule"
	"go.uber.org/zap"
)

// AlarmService is the host timer port. Arming a pk that is already armed
// supersedes the previous registration; there is never more than one alarm
// per pk.
type AlarmService interface {
	// Arm registers an alarm for the pk at the given instant.
	Arm(pk string, fireAt time.Time)
	// Disarm cancels any alarm registered for the pk. No-op if none is.
	Disarm(pk string)
	// ArmedKeys returns the pks that currently have an alarm registered.
	ArmedKeys() []string
}

// Notifier is what the scheduler needs from the notification subsystem when
// an alarm fires.
type Notifier interface {
	EventReminder(e schedule.Event) error
}

// Service maintains the alarm invariant: for every selected event that
// passes the reminder filter and whose fire time is still in the future,
// exactly one alarm is armed at (start - lead); everything else is unarmed.
//
// Lock ordering: methods read the schedule service before taking the local
// mutex, never while holding it. Observer callbacks arrive already holding
// the schedule lock and only take the local mutex.
type Service struct {
	schedule *schedule.Service
	alarms   AlarmService
	prefRepo PreferenceRepository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	prefs    Preferences
	selected map[string]schedule.Event // mirror of the selected partition
}

// NewService creates a reminder scheduler. Call LoadPreferences and
// RescheduleAll before registering it as a store observer.
func NewService(sched *schedule.Service, alarms AlarmService, prefRepo PreferenceRepository, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		schedule: sched,
		alarms:   alarms,
		prefRepo: prefRepo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		prefs:    DefaultPreferences(),
		selected: make(map[string]schedule.Event),
	}
}

// SeedDefaults replaces the built-in defaults with a configured set, used
// until the user stores their own. Call before LoadPreferences so a stored
// configuration still wins.
func (s *Service) SeedDefaults(p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()
	return nil
}

// LoadPreferences restores the persisted reminder configuration. When
// nothing has been stored yet the current defaults stay in effect.
func (s *Service) LoadPreferences() error {
	prefs, err := s.prefRepo.LoadPreferences()
	if errors.Is(err, ErrNoPreferences) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load reminder preferences: %w", err)
	}
	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()
	return nil
}

// Preferences returns the current reminder configuration.
func (s *Service) Preferences() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SetPreferences validates, persists, and applies a new configuration. Every
// alarm is rescheduled under the new policy and lead time. A persistence
// failure is surfaced but the new configuration still applies for this
// session.
func (s *Service) SetPreferences(p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()

	s.RescheduleAll(s.now())

	if err := s.prefRepo.SavePreferences(p); err != nil {
		s.logger.Error("Failed to persist reminder preferences", zap.Error(err))
		return fmt.Errorf("persist reminder preferences: %w", err)
	}
	return nil
}

// RescheduleAll disarms every alarm, rebuilds the selected mirror from the
// store, and re-arms one alarm per eligible event whose fire time is strictly
// after now. Called at boot, on device-restart recovery, and whenever the
// reminder configuration changes.
func (s *Service) RescheduleAll(now time.Time) {
	events := s.schedule.SelectedEvents()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pk := range s.alarms.ArmedKeys() {
		s.alarms.Disarm(pk)
	}
	s.selected = make(map[string]schedule.Event, len(events))

	armed := 0
	for _, e := range events {
		s.selected[e.Pk] = e
		if s.armLocked(e, now) {
			armed++
		}
	}
	s.logger.Info("Reminder alarms rescheduled",
		zap.Int("selected", len(events)),
		zap.Int("armed", armed),
		zap.String("policy", string(s.prefs.Policy)),
		zap.Duration("lead", s.prefs.Lead()),
	)
}

// OnStoreChange implements schedule.Observer. It runs synchronously under
// the schedule lock, so it works purely off the change payload and the local
// mirror; it never reads back into the store.
func (s *Service) OnStoreChange(c schedule.Change) {
	switch ch := c.(type) {
	case schedule.SelectionChanged:
		if ch.Selected {
			s.onSelected(ch.Event)
		} else {
			s.onDeselected(ch.Event)
		}
	case schedule.EventsChanged:
		s.onEventsChanged(ch)
	}
}

// onSelected incrementally arms the one affected alarm.
func (s *Service) onSelected(e schedule.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected[e.Pk] = e
	s.armLocked(e, s.now())
}

// onDeselected incrementally disarms the one affected alarm.
func (s *Service) onDeselected(e schedule.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selected, e.Pk)
	s.alarms.Disarm(e.Pk)
}

func (s *Service) onEventsChanged(ch schedule.EventsChanged) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, e := range ch.Upserted {
		if _, sel := s.selected[e.Pk]; !sel {
			continue
		}
		// The event may have moved or changed eligibility; re-arm from
		// scratch.
		s.selected[e.Pk] = e
		s.alarms.Disarm(e.Pk)
		s.armLocked(e, now)
	}
	for _, pk := range ch.DeletedPks {
		if _, sel := s.selected[pk]; !sel {
			continue
		}
		delete(s.selected, pk)
		s.alarms.Disarm(pk)
	}
}

// OnAlarmFired handles an alarm callback from the timer service. If the
// event was deleted between arming and firing, the stale alarm is discarded
// silently; that race is benign.
func (s *Service) OnAlarmFired(pk string) {
	e, ok := s.schedule.EventByPk(pk)
	if !ok || !s.schedule.IsSelected(pk) {
		s.logger.Debug("Stale alarm discarded", zap.String("pk", pk))
		s.mu.Lock()
		delete(s.selected, pk)
		s.mu.Unlock()
		return
	}

	if err := s.notifier.EventReminder(e); err != nil {
		s.logger.Error("Failed to emit event reminder",
			zap.String("pk", pk),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("Event reminder fired",
		zap.String("pk", pk),
		zap.String("name", e.Name),
	)
}

// armLocked arms the event's alarm if it passes the filter and its fire time
// is still ahead of now. An already-elapsed fire time is skipped, never
// armed with a negative delay. Returns whether an alarm was armed.
func (s *Service) armLocked(e schedule.Event, now time.Time) bool {
	if !s.eligibleLocked(e) {
		return false
	}
	fireAt := e.Start.Add(-s.prefs.Lead())
	if !fireAt.After(now) {
		return false
	}
	s.alarms.Arm(e.Pk, fireAt)
	return true
}

func (s *Service) eligibleLocked(e schedule.Event) bool {
	switch s.prefs.Policy {
	case PolicyAll:
		return true
	case PolicyRequired:
		return e.RequiredFor(s.prefs.StudentType)
	default:
		return false
	}
}
