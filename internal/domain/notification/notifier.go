package notification

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cornell-dti/o-week-android-sub000/internal/domain/schedule"
)

// ScheduleNotifier turns schedule-level happenings into user-visible alerts.
// It satisfies the reminder scheduler's Notifier port and doubles as a store
// observer surfacing "an event you saved has changed / was removed" after a
// sync.
type ScheduleNotifier struct {
	service Service
	logger  *logrus.Logger
}

// NewScheduleNotifier creates a schedule notifier over the notification
// service.
func NewScheduleNotifier(service Service, logger *logrus.Logger) *ScheduleNotifier {
	return &ScheduleNotifier{service: service, logger: logger}
}

// EventReminder emits the alert for a fired alarm: the event's title and
// caption with the pk attached for deep linking.
func (n *ScheduleNotifier) EventReminder(e schedule.Event) error {
	return n.service.CreateTyped(context.Background(), EventReminder,
		e.Name,
		reminderContent(e),
		map[string]string{DataKeyEventPk: e.Pk},
	)
}

// OnStoreChange implements schedule.Observer. SyncCompleted handlers run
// under the store lock, so the actual notification writes are handed off to
// a goroutine.
func (n *ScheduleNotifier) OnStoreChange(c schedule.Change) {
	sc, ok := c.(schedule.SyncCompleted)
	if !ok {
		return
	}
	if len(sc.UpdatedSelected) == 0 && len(sc.RemovedSelected) == 0 {
		return
	}
	updated := append([]schedule.Event(nil), sc.UpdatedSelected...)
	removed := append([]schedule.Event(nil), sc.RemovedSelected...)
	go n.emitSyncChanges(updated, removed)
}

func (n *ScheduleNotifier) emitSyncChanges(updated, removed []schedule.Event) {
	ctx := context.Background()
	for _, e := range updated {
		err := n.service.CreateTyped(ctx, SavedEventUpdated,
			"An event you saved has changed",
			e.Name,
			map[string]string{DataKeyEventPk: e.Pk},
		)
		if err != nil {
			n.logger.WithError(err).WithField("pk", e.Pk).
				Error("Failed to emit saved-event-updated notification")
		}
	}
	for _, e := range removed {
		err := n.service.CreateTyped(ctx, SavedEventRemoved,
			"Removed from your schedule",
			e.Name,
			map[string]string{DataKeyEventPk: e.Pk},
		)
		if err != nil {
			n.logger.WithError(err).WithField("pk", e.Pk).
				Error("Failed to emit saved-event-removed notification")
		}
	}
}

func reminderContent(e schedule.Event) string {
	if e.Caption != "" {
		return e.Caption
	}
	return fmt.Sprintf("Starts at %s", e.Start.Format("15:04"))
}
