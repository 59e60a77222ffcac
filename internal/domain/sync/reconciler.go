package sync

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cornell-dti/o-week-android-sub000/internal/domain/schedule"
	"go.uber.org/zap"
)

// Result describes what one applied payload meant for the user's selections.
type Result struct {
	// Version is the marker persisted for this payload.
	Version int64
	// UpdatedSelected holds changed events whose pk was selected before the
	// payload was applied ("an event you saved has changed").
	UpdatedSelected []schedule.Event
	// RemovedSelected holds deleted events that were selected ("removed from
	// your schedule").
	RemovedSelected []schedule.Event
}

// Reconciler applies incremental feed payloads to the schedule atomically:
// a payload either fully parses and lands, or leaves the store and the
// persisted version marker untouched.
type Reconciler struct {
	svc     *schedule.Service
	state   schedule.StateRepository
	logger  *zap.Logger
	version atomic.Int64
	applied atomic.Int64 // unix nanos of last successful apply, 0 = never
}

// NewReconciler creates a reconciler over the schedule service.
func NewReconciler(svc *schedule.Service, state schedule.StateRepository, logger *zap.Logger) *Reconciler {
	return &Reconciler{svc: svc, state: state, logger: logger}
}

// SetVersion seeds the in-memory version marker, typically from the restored
// snapshot at boot.
func (r *Reconciler) SetVersion(v int64) {
	r.version.Store(v)
}

// Version returns the last-applied version marker. It is the request
// parameter for the next incremental fetch.
func (r *Reconciler) Version() int64 {
	return r.version.Load()
}

// LastApplied returns when a payload last applied successfully, or the zero
// time if none has.
func (r *Reconciler) LastApplied() time.Time {
	n := r.applied.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Apply parses a raw payload body and applies it. A parse or validation
// failure aborts before the store is touched.
func (r *Reconciler) Apply(raw []byte) (*Result, error) {
	p, err := ParsePayload(raw)
	if err != nil {
		return nil, err
	}
	return r.ApplyPayload(p)
}

// ApplyPayload applies one parsed payload in the fixed order: category
// deletions, category upserts, event deletions, event upserts. A pk that is
// both deleted and changed in the same payload is treated as changed only:
// the upsert wins and the deletion is skipped outright, so the event (and
// any selection of it) survives.
//
// Store mutations cannot fail after validation; persistence failures are
// collected and surfaced as ErrPersistence while the in-memory result
// stands. The persisted version marker is only written once every row
// landed, so a partial failure leaves the old marker on disk.
func (r *Reconciler) ApplyPayload(p *Payload) (*Result, error) {
	result := &Result{Version: p.Timestamp}
	var persistErrs []error

	changedPks := make(map[string]struct{}, len(p.Events.Changed))
	for _, rec := range p.Events.Changed {
		changedPks[rec.Pk] = struct{}{}
	}

	err := r.svc.Update(func(st *schedule.Store) error {
		selectedBefore := make(map[string]struct{})
		for _, pk := range st.SelectedPks() {
			selectedBefore[pk] = struct{}{}
		}

		for _, pk := range p.Categories.Deleted {
			st.DeleteCategory(pk)
			if err := r.state.DeleteCategory(pk); err != nil {
				persistErrs = append(persistErrs, err)
			}
		}
		for _, rec := range p.Categories.Changed {
			c := rec.Category()
			st.UpsertCategory(c)
			if err := r.state.SaveCategory(c); err != nil {
				persistErrs = append(persistErrs, err)
			}
		}

		selectionShrank := false
		for _, pk := range p.Events.Deleted {
			if _, alsoChanged := changedPks[pk]; alsoChanged {
				continue
			}
			if _, was := selectedBefore[pk]; was {
				if e, ok := st.EventByPk(pk); ok {
					result.RemovedSelected = append(result.RemovedSelected, e)
					selectionShrank = true
				}
			}
			st.DeleteEvent(pk)
			if err := r.state.DeleteEvent(pk); err != nil {
				persistErrs = append(persistErrs, err)
			}
		}
		for _, rec := range p.Events.Changed {
			e := rec.Event()
			if _, was := selectedBefore[e.Pk]; was {
				result.UpdatedSelected = append(result.UpdatedSelected, e)
			}
			st.UpsertEvent(e)
			if err := r.state.SaveEvent(e); err != nil {
				persistErrs = append(persistErrs, err)
			}
		}

		if selectionShrank {
			if err := r.state.SaveSelectedPks(st.SelectedPks()); err != nil {
				persistErrs = append(persistErrs, err)
			}
		}
		// The on-disk marker must never get ahead of the on-disk rows: an
		// incremental feed would otherwise skip the lost mutations forever.
		// Leave the old marker in place so the next sync refetches them.
		if len(persistErrs) == 0 {
			if err := r.state.SaveVersion(p.Timestamp); err != nil {
				persistErrs = append(persistErrs, err)
			}
		}

		st.NotifySyncCompleted(schedule.SyncCompleted{
			Version:         p.Timestamp,
			UpdatedSelected: result.UpdatedSelected,
			RemovedSelected: result.RemovedSelected,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.version.Store(p.Timestamp)
	r.applied.Store(time.Now().UnixNano())

	r.logger.Info("Feed payload applied",
		zap.Int64("version", p.Timestamp),
		zap.Int("changed_events", len(p.Events.Changed)),
		zap.Int("deleted_events", len(p.Events.Deleted)),
		zap.Int("changed_categories", len(p.Categories.Changed)),
		zap.Int("deleted_categories", len(p.Categories.Deleted)),
		zap.Int("updated_selected", len(result.UpdatedSelected)),
		zap.Int("removed_selected", len(result.RemovedSelected)),
	)

	if len(persistErrs) > 0 {
		return result, fmt.Errorf("%w: %v", ErrPersistence, errors.Join(persistErrs...))
	}
	return result, nil
}
