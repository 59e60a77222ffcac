package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornell-dti/o-week-android-sub000/internal/domain/reminder"
	"github.com/cornell-dti/o-week-android-sub000/internal/domain/schedule"
)

func newTestStore(t *testing.T) *StateStore {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	return NewStateStore(db)
}

func TestLoadEmptyDatabase(t *testing.T) {
	store := newTestStore(t)

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Events)
	assert.Empty(t, snap.Categories)
	assert.Empty(t, snap.SelectedPks)
	assert.Zero(t, snap.Version)
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC)

	event := schedule.Event{
		Pk:                "a",
		Name:              "Convocation",
		Caption:           "Welcome",
		Location:          "Schoellkopf",
		Start:             start,
		End:               start.Add(2 * time.Hour),
		Categories:        []string{"1"},
		FirstYearRequired: true,
	}

	require.NoError(t, store.SaveEvent(event))
	require.NoError(t, store.SaveCategory(schedule.Category{Pk: "1", Name: "Academic"}))
	require.NoError(t, store.SaveSelectedPks([]string{"a"}))
	require.NoError(t, store.SaveVersion(12))

	snap, err := store.Load()
	require.NoError(t, err)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, event, snap.Events[0])
	require.Len(t, snap.Categories, 1)
	assert.Equal(t, "Academic", snap.Categories[0].Name)
	assert.Equal(t, []string{"a"}, snap.SelectedPks)
	assert.Equal(t, int64(12), snap.Version)
}

func TestSaveEventOverwrites(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC)

	e := schedule.Event{Pk: "a", Name: "First", Start: start, End: start.Add(time.Hour)}
	require.NoError(t, store.SaveEvent(e))

	e.Name = "Second"
	require.NoError(t, store.SaveEvent(e))

	snap, err := store.Load()
	require.NoError(t, err)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "Second", snap.Events[0].Name)
}

func TestDeleteEvent(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveEvent(schedule.Event{Pk: "a", Name: "A", Start: start, End: start.Add(time.Hour)}))
	require.NoError(t, store.DeleteEvent("a"))
	// Deleting an absent record is a no-op, not an error.
	require.NoError(t, store.DeleteEvent("a"))

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Events)
}

func TestSaveSelectedPksReplacesSet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveSelectedPks([]string{"a", "b"}))
	require.NoError(t, store.SaveSelectedPks([]string{"b"}))

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, snap.SelectedPks)
}

func TestLoadSkipsUndecodableRows(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveEvent(schedule.Event{Pk: "good", Name: "Good", Start: start, End: start.Add(time.Hour)}))
	require.NoError(t, store.put("event:bad", "{not json"))

	snap, err := store.Load()
	require.NoError(t, err)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "good", snap.Events[0].Pk)
}

func TestPreferencesErrWhenUnset(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadPreferences()
	assert.ErrorIs(t, err, reminder.ErrNoPreferences)
}

func TestPreferencesRoundTrip(t *testing.T) {
	store := newTestStore(t)

	want := reminder.Preferences{
		Policy:      reminder.PolicyRequired,
		LeadMinutes: 45,
		StudentType: schedule.StudentTypeTransfer,
	}
	require.NoError(t, store.SavePreferences(want))

	got, err := store.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
