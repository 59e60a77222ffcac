package sync

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cornell-dti/o-week-android-sub000/internal/domain/schedule"
)

// memState is an in-memory StateRepository whose writes can be failed.
type memState struct {
	events     map[string]schedule.Event
	categories map[string]schedule.Category
	selected        []string
	version         int64
	failWrites      bool
	failEventWrites bool
}

func newMemState() *memState {
	return &memState{
		events:     make(map[string]schedule.Event),
		categories: make(map[string]schedule.Category),
	}
}

func (m *memState) SaveEvent(e schedule.Event) error {
	if m.failWrites || m.failEventWrites {
		return errors.New("write failed")
	}
	m.events[e.Pk] = e
	return nil
}

func (m *memState) DeleteEvent(pk string) error {
	if m.failWrites {
		return errors.New("write failed")
	}
	delete(m.events, pk)
	return nil
}

func (m *memState) SaveCategory(c schedule.Category) error {
	if m.failWrites {
		return errors.New("write failed")
	}
	m.categories[c.Pk] = c
	return nil
}

func (m *memState) DeleteCategory(pk string) error {
	if m.failWrites {
		return errors.New("write failed")
	}
	delete(m.categories, pk)
	return nil
}

func (m *memState) SaveSelectedPks(pks []string) error {
	if m.failWrites {
		return errors.New("write failed")
	}
	m.selected = append([]string(nil), pks...)
	return nil
}

func (m *memState) SaveVersion(v int64) error {
	if m.failWrites {
		return errors.New("write failed")
	}
	m.version = v
	return nil
}

func (m *memState) Load() (schedule.Snapshot, error) {
	return schedule.Snapshot{}, nil
}

func newTestReconciler(t *testing.T) (*Reconciler, *schedule.Service, *memState) {
	t.Helper()
	state := newMemState()
	svc := schedule.NewService(state, zap.NewNop())
	return NewReconciler(svc, state, zap.NewNop()), svc, state
}

func record(pk string, start time.Time) EventRecord {
	return EventRecord{
		Pk:       pk,
		Name:     "Event " + pk,
		Location: "Barton Hall",
		Start:    start.UnixMilli(),
		End:      start.Add(time.Hour).UnixMilli(),
	}
}

func TestApplyInsertsEventsAndCategories(t *testing.T) {
	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	r, svc, state := newTestReconciler(t)

	raw := fmt.Sprintf(`{
		"events": {"changed": [
			{"pk": "a", "name": "Check-In", "location": "Barton", "start": %d, "end": %d}
		], "deleted": []},
		"categories": {"changed": [{"pk": "1", "name": "Academic"}], "deleted": []},
		"timestamp": 5
	}`, day.Add(9*time.Hour).UnixMilli(), day.Add(10*time.Hour).UnixMilli())

	result, err := r.Apply([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Version)
	assert.Equal(t, int64(5), r.Version())
	assert.False(t, r.LastApplied().IsZero())

	events := svc.EventsOn(day)
	require.Len(t, events, 1)
	assert.Equal(t, "Check-In", events[0].Name)
	assert.Equal(t, day.Add(9*time.Hour), events[0].Start)

	assert.Len(t, svc.Categories(), 1)
	assert.Equal(t, int64(5), state.version)
	assert.Contains(t, state.events, "a")
}

func TestApplyMalformedPayloadLeavesStoreUntouched(t *testing.T) {
	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	r, svc, state := newTestReconciler(t)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "invalid json", raw: `{"events": [`},
		{
			name: "missing event name rejects whole payload",
			raw: fmt.Sprintf(`{
				"events": {"changed": [
					{"pk": "ok", "name": "Fine", "start": %d, "end": %d},
					{"pk": "bad", "name": "", "start": %d, "end": %d}
				]},
				"timestamp": 9
			}`, day.UnixMilli(), day.Add(time.Hour).UnixMilli(), day.UnixMilli(), day.Add(time.Hour).UnixMilli()),
		},
		{name: "empty deleted pk", raw: `{"events": {"deleted": [""]}, "timestamp": 9}`},
		{name: "negative timestamp", raw: `{"timestamp": -1}`},
		{
			name: "end before start",
			raw: fmt.Sprintf(`{
				"events": {"changed": [{"pk": "x", "name": "X", "start": %d, "end": %d}]},
				"timestamp": 9
			}`, day.Add(time.Hour).UnixMilli(), day.UnixMilli()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Apply([]byte(tt.raw))
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}

	// Nothing landed, even the records that were individually fine.
	assert.Empty(t, svc.EventsOn(day))
	assert.Zero(t, r.Version())
	assert.True(t, r.LastApplied().IsZero())
	assert.Empty(t, state.events)
}

func TestApplyDeleteBeforeUpsert(t *testing.T) {
	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	r, svc, _ := newTestReconciler(t)

	p := &Payload{
		Events:    EventDelta{Changed: []EventRecord{record("a", day.Add(9 * time.Hour))}},
		Timestamp: 1,
	}
	_, err := r.ApplyPayload(p)
	require.NoError(t, err)

	// One payload deletes "a" and inserts "b".
	p2 := &Payload{
		Events: EventDelta{
			Changed: []EventRecord{record("b", day.Add(11 * time.Hour))},
			Deleted: []string{"a"},
		},
		Timestamp: 2,
	}
	_, err = r.ApplyPayload(p2)
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, eventPks(svc.EventsOn(day)))
}

func TestApplyDeleteAndChangeSamePkUpsertWins(t *testing.T) {
	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	r, svc, _ := newTestReconciler(t)

	_, err := r.ApplyPayload(&Payload{
		Events:    EventDelta{Changed: []EventRecord{record("a", day.Add(9 * time.Hour))}},
		Timestamp: 1,
	})
	require.NoError(t, err)
	require.NoError(t, svc.SelectEvent("a"))

	moved := record("a", day.Add(14*time.Hour))
	result, err := r.ApplyPayload(&Payload{
		Events: EventDelta{
			Changed: []EventRecord{moved},
			Deleted: []string{"a"},
		},
		Timestamp: 2,
	})
	require.NoError(t, err)

	// The event survived, at its new time, and stayed selected.
	got, ok := svc.EventByPk("a")
	require.True(t, ok)
	assert.Equal(t, day.Add(14*time.Hour), got.Start)
	assert.True(t, svc.IsSelected("a"))

	assert.Empty(t, result.RemovedSelected)
	require.Len(t, result.UpdatedSelected, 1)
	assert.Equal(t, "a", result.UpdatedSelected[0].Pk)
}

func TestApplyReportsSelectedChanges(t *testing.T) {
	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	r, svc, state := newTestReconciler(t)

	_, err := r.ApplyPayload(&Payload{
		Events: EventDelta{Changed: []EventRecord{
			record("keep", day.Add(9*time.Hour)),
			record("gone", day.Add(11*time.Hour)),
			record("other", day.Add(13*time.Hour)),
		}},
		Timestamp: 5,
	})
	require.NoError(t, err)
	require.NoError(t, svc.SelectEvent("keep"))
	require.NoError(t, svc.SelectEvent("gone"))

	updated := record("keep", day.Add(10*time.Hour))
	result, err := r.ApplyPayload(&Payload{
		Events: EventDelta{
			Changed: []EventRecord{updated, record("new", day.Add(15 * time.Hour))},
			Deleted: []string{"gone", "other"},
		},
		Timestamp: 6,
	})
	require.NoError(t, err)

	require.Len(t, result.UpdatedSelected, 1)
	assert.Equal(t, "keep", result.UpdatedSelected[0].Pk)
	require.Len(t, result.RemovedSelected, 1)
	assert.Equal(t, "gone", result.RemovedSelected[0].Pk)

	// "other" was deleted but never selected, so it is not reported.
	assert.True(t, svc.IsSelected("keep"))
	assert.False(t, svc.IsSelected("gone"))
	assert.Equal(t, []string{"keep"}, state.selected)
	assert.Equal(t, int64(6), r.Version())
}

func TestApplySyncCompletedNotification(t *testing.T) {
	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	r, svc, _ := newTestReconciler(t)

	var completions []schedule.SyncCompleted
	svc.Register(schedule.ObserverFunc(func(c schedule.Change) {
		if sc, ok := c.(schedule.SyncCompleted); ok {
			completions = append(completions, sc)
		}
	}))

	_, err := r.ApplyPayload(&Payload{
		Events:    EventDelta{Changed: []EventRecord{record("a", day.Add(9 * time.Hour))}},
		Timestamp: 3,
	})
	require.NoError(t, err)

	require.Len(t, completions, 1)
	assert.Equal(t, int64(3), completions[0].Version)
}

func TestApplyPersistenceFailureKeepsMemoryResult(t *testing.T) {
	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	r, svc, state := newTestReconciler(t)

	state.failWrites = true
	result, err := r.ApplyPayload(&Payload{
		Events:    EventDelta{Changed: []EventRecord{record("a", day.Add(9 * time.Hour))}},
		Timestamp: 4,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	require.NotNil(t, result)

	// The in-memory store applied fully and the session marker advanced.
	assert.Len(t, svc.EventsOn(day), 1)
	assert.Equal(t, int64(4), r.Version())
}

func TestApplyPartialPersistenceFailureKeepsOldMarkerOnDisk(t *testing.T) {
	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	r, svc, state := newTestReconciler(t)

	_, err := r.ApplyPayload(&Payload{
		Events:    EventDelta{Changed: []EventRecord{record("a", day.Add(9 * time.Hour))}},
		Timestamp: 5,
	})
	require.NoError(t, err)
	require.Equal(t, int64(5), state.version)

	// Event rows fail but the version row itself would succeed. The marker
	// must not be written past rows that never reached disk, or a restart
	// would never refetch them.
	state.failEventWrites = true
	result, err := r.ApplyPayload(&Payload{
		Events:    EventDelta{Changed: []EventRecord{record("b", day.Add(11 * time.Hour))}},
		Timestamp: 7,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	require.NotNil(t, result)

	assert.NotContains(t, state.events, "b")
	assert.Equal(t, int64(5), state.version)

	// In memory the payload still applied, and the session keeps fetching
	// from the newer marker.
	assert.Len(t, svc.EventsOn(day), 2)
	assert.Equal(t, int64(7), r.Version())
}

func TestEventRecordConversion(t *testing.T) {
	start := time.Date(2026, 8, 22, 9, 30, 0, 0, time.UTC)
	rec := EventRecord{
		Pk:                "a",
		Name:              "Convocation",
		Caption:           "Welcome to the hill",
		Location:          "Schoellkopf",
		Start:             start.UnixMilli(),
		End:               start.Add(2 * time.Hour).UnixMilli(),
		Categories:        []string{"1"},
		FirstYearRequired: true,
	}

	e := rec.Event()
	assert.Equal(t, start, e.Start)
	assert.Equal(t, start.Add(2*time.Hour), e.End)
	assert.Equal(t, time.UTC, e.Start.Location())
	assert.True(t, e.FirstYearRequired)
	assert.False(t, e.TransferRequired)
}

func eventPks(events []schedule.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Pk
	}
	return out
}
