package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeState records persistence calls in memory and can be told to fail.
type fakeState struct {
	snapshot    Snapshot
	selected    []string
	failWrites  bool
	errSentinel error
}

func newFakeState() *fakeState {
	return &fakeState{errSentinel: errors.New("disk full")}
}

func (f *fakeState) write() error {
	if f.failWrites {
		return f.errSentinel
	}
	return nil
}

func (f *fakeState) SaveEvent(Event) error       { return f.write() }
func (f *fakeState) DeleteEvent(string) error    { return f.write() }
func (f *fakeState) SaveCategory(Category) error { return f.write() }
func (f *fakeState) DeleteCategory(string) error { return f.write() }
func (f *fakeState) SaveVersion(int64) error     { return f.write() }

func (f *fakeState) SaveSelectedPks(pks []string) error {
	if f.failWrites {
		return f.errSentinel
	}
	f.selected = append([]string(nil), pks...)
	return nil
}

func (f *fakeState) Load() (Snapshot, error) {
	return f.snapshot, nil
}

func TestServiceLoadRestoresSnapshot(t *testing.T) {
	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)

	state := newFakeState()
	state.snapshot = Snapshot{
		Events: []Event{
			makeEvent("a", day.Add(9*time.Hour)),
			makeEvent("b", day.Add(11*time.Hour)),
		},
		Categories:  []Category{{Pk: "1", Name: "Academic"}},
		SelectedPks: []string{"b", "ghost"}, // ghost has no event and must be dropped
		Version:     7,
	}

	svc := NewService(state, zap.NewNop())
	version, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(7), version)

	assert.Len(t, svc.EventsOn(day), 2)
	assert.True(t, svc.IsSelected("b"))
	assert.False(t, svc.IsSelected("ghost"))
	assert.Len(t, svc.Categories(), 1)
}

func TestServiceLoadEmitsNoNotifications(t *testing.T) {
	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)

	state := newFakeState()
	state.snapshot = Snapshot{
		Events:      []Event{makeEvent("a", day.Add(9*time.Hour))},
		SelectedPks: []string{"a"},
	}

	svc := NewService(state, zap.NewNop())

	var fired int
	svc.Register(ObserverFunc(func(Change) { fired++ }))

	_, err := svc.Load()
	require.NoError(t, err)
	assert.Zero(t, fired)
}

func TestServiceSelectPersists(t *testing.T) {
	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)

	state := newFakeState()
	svc := NewService(state, zap.NewNop())
	require.NoError(t, svc.Update(func(st *Store) error {
		st.UpsertEvent(makeEvent("a", day.Add(9*time.Hour)))
		st.UpsertEvent(makeEvent("b", day.Add(11*time.Hour)))
		return nil
	}))

	require.NoError(t, svc.SelectEvent("b"))
	require.NoError(t, svc.SelectEvent("a"))
	assert.Equal(t, []string{"a", "b"}, state.selected)

	require.NoError(t, svc.DeselectEvent("b"))
	assert.Equal(t, []string{"a"}, state.selected)
}

func TestServiceSelectUnknownEvent(t *testing.T) {
	svc := NewService(newFakeState(), zap.NewNop())
	assert.ErrorIs(t, svc.SelectEvent("ghost"), ErrEventNotFound)
}

func TestServiceSelectSurvivesPersistenceFailure(t *testing.T) {
	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)

	state := newFakeState()
	svc := NewService(state, zap.NewNop())
	require.NoError(t, svc.Update(func(st *Store) error {
		st.UpsertEvent(makeEvent("a", day.Add(9*time.Hour)))
		return nil
	}))

	state.failWrites = true
	err := svc.SelectEvent("a")
	require.Error(t, err)
	assert.ErrorIs(t, err, state.errSentinel)
	// The in-memory selection stands for the rest of the session.
	assert.True(t, svc.IsSelected("a"))
}
