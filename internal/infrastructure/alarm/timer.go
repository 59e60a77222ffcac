package alarm

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler receives the pk of an alarm that fired.
type Handler func(pk string)

// armed is one alarm registration. fire compares record identity so a
// callback from a superseded timer cannot evict its replacement.
type armed struct {
	timer *time.Timer
}

// TimerService is the in-process implementation of the reminder alarm port,
// one time.Timer per armed pk. Re-arming a pk stops and replaces its timer,
// so at most one alarm exists per key.
type TimerService struct {
	mu      sync.Mutex
	timers  map[string]*armed
	handler Handler
	stopped bool
	logger  *zap.Logger
}

// NewTimerService creates an alarm service with no armed alarms.
func NewTimerService(logger *zap.Logger) *TimerService {
	return &TimerService{
		timers: make(map[string]*armed),
		logger: logger,
	}
}

// SetHandler installs the callback invoked when an alarm fires. Must be set
// before anything is armed; fired alarms with no handler are dropped.
func (t *TimerService) SetHandler(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// Arm registers an alarm for the pk at the given instant, superseding any
// prior registration for that key.
func (t *TimerService) Arm(pk string, fireAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	if prev, ok := t.timers[pk]; ok {
		prev.timer.Stop()
	}
	delay := time.Until(fireAt)
	if delay < 0 {
		// An already-elapsed instant fires immediately.
		delay = 0
	}
	a := &armed{}
	a.timer = time.AfterFunc(delay, func() { t.fire(pk, a) })
	t.timers[pk] = a
	t.logger.Debug("Alarm armed",
		zap.String("pk", pk),
		zap.Time("fire_at", fireAt),
	)
}

// Disarm cancels the alarm for the pk, if any.
func (t *TimerService) Disarm(pk string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if a, ok := t.timers[pk]; ok {
		a.timer.Stop()
		delete(t.timers, pk)
		t.logger.Debug("Alarm disarmed", zap.String("pk", pk))
	}
}

// ArmedKeys returns the currently armed pks, sorted.
func (t *TimerService) ArmedKeys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.timers))
	for pk := range t.timers {
		out = append(out, pk)
	}
	sort.Strings(out)
	return out
}

// Stop disarms everything and rejects further arming. Used at shutdown.
func (t *TimerService) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	for pk, a := range t.timers {
		a.timer.Stop()
		delete(t.timers, pk)
	}
}

func (t *TimerService) fire(pk string, a *armed) {
	t.mu.Lock()
	if t.timers[pk] != a {
		// A re-arm (or Disarm, or Stop) superseded this registration after
		// its timer function had already started; the key is no longer ours.
		t.mu.Unlock()
		return
	}
	delete(t.timers, pk)
	handler := t.handler
	t.mu.Unlock()

	if handler == nil {
		t.logger.Warn("Alarm fired with no handler installed", zap.String("pk", pk))
		return
	}
	handler(pk)
}
