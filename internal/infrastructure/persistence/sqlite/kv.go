package sqlite

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cornell-dti/o-week-android-sub000/internal/domain/reminder"
	"github.com/cornell-dti/o-week-android-sub000/internal/domain/schedule"
)

// Key layout of the flat state table. Record values are single-line JSON;
// the encoding only has to round-trip, nothing reads it but this store.
const (
	eventKeyPrefix    = "event:"
	categoryKeyPrefix = "category:"
	selectedKey       = "selected"
	versionKey        = "sync_version"
	preferencesKey    = "reminder_prefs"
)

// appState is one row of the flat string-keyed store.
type appState struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"column:value;not null"`
}

// TableName specifies the state table name.
func (appState) TableName() string { return "app_state" }

// StateStore is the sqlite-backed implementation of the schedule
// StateRepository and the reminder PreferenceRepository.
type StateStore struct {
	db *gorm.DB
}

// NewStateStore creates a state store over an opened database.
func NewStateStore(db *gorm.DB) *StateStore {
	return &StateStore{db: db}
}

// SaveEvent persists one event record keyed by pk.
func (s *StateStore) SaveEvent(e schedule.Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %q: %w", e.Pk, err)
	}
	return s.put(eventKeyPrefix+e.Pk, string(raw))
}

// DeleteEvent removes a persisted event record. No-op if absent.
func (s *StateStore) DeleteEvent(pk string) error {
	return s.delete(eventKeyPrefix + pk)
}

// SaveCategory persists one category record keyed by pk.
func (s *StateStore) SaveCategory(c schedule.Category) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode category %q: %w", c.Pk, err)
	}
	return s.put(categoryKeyPrefix+c.Pk, string(raw))
}

// DeleteCategory removes a persisted category record. No-op if absent.
func (s *StateStore) DeleteCategory(pk string) error {
	return s.delete(categoryKeyPrefix + pk)
}

// SaveSelectedPks persists the full selected-pk set.
func (s *StateStore) SaveSelectedPks(pks []string) error {
	raw, err := json.Marshal(pks)
	if err != nil {
		return fmt.Errorf("encode selected pks: %w", err)
	}
	return s.put(selectedKey, string(raw))
}

// SaveVersion persists the last-applied sync version marker.
func (s *StateStore) SaveVersion(v int64) error {
	return s.put(versionKey, strconv.FormatInt(v, 10))
}

// Load restores the full snapshot from the state table. An empty table
// yields an empty snapshot. Individual rows that fail to decode are skipped
// rather than failing the whole restore; the next sync repairs them.
func (s *StateStore) Load() (schedule.Snapshot, error) {
	var rows []appState
	if err := s.db.Find(&rows).Error; err != nil {
		return schedule.Snapshot{}, fmt.Errorf("read state table: %w", err)
	}

	snap := schedule.Snapshot{}
	for _, row := range rows {
		switch {
		case strings.HasPrefix(row.Key, eventKeyPrefix):
			var e schedule.Event
			if err := json.Unmarshal([]byte(row.Value), &e); err != nil {
				continue
			}
			snap.Events = append(snap.Events, e)
		case strings.HasPrefix(row.Key, categoryKeyPrefix):
			var c schedule.Category
			if err := json.Unmarshal([]byte(row.Value), &c); err != nil {
				continue
			}
			snap.Categories = append(snap.Categories, c)
		case row.Key == selectedKey:
			_ = json.Unmarshal([]byte(row.Value), &snap.SelectedPks)
		case row.Key == versionKey:
			if v, err := strconv.ParseInt(row.Value, 10, 64); err == nil {
				snap.Version = v
			}
		}
	}
	return snap, nil
}

// SavePreferences persists the reminder configuration.
func (s *StateStore) SavePreferences(p reminder.Preferences) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	return s.put(preferencesKey, string(raw))
}

// LoadPreferences returns the stored reminder configuration, or
// reminder.ErrNoPreferences when none has been stored yet.
func (s *StateStore) LoadPreferences() (reminder.Preferences, error) {
	var row appState
	err := s.db.First(&row, "key = ?", preferencesKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reminder.Preferences{}, reminder.ErrNoPreferences
	}
	if err != nil {
		return reminder.Preferences{}, fmt.Errorf("read preferences: %w", err)
	}

	var p reminder.Preferences
	if err := json.Unmarshal([]byte(row.Value), &p); err != nil {
		return reminder.Preferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	return p, nil
}

func (s *StateStore) put(key, value string) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&appState{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("write state key %q: %w", key, err)
	}
	return nil
}

func (s *StateStore) delete(key string) error {
	if err := s.db.Delete(&appState{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("delete state key %q: %w", key, err)
	}
	return nil
}
