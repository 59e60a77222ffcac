package notification

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type represents the type of notification
type Type string

const (
	// EventReminder fires from an armed alarm before a saved event starts.
	EventReminder Type = "event_reminder"
	// SavedEventUpdated reports that a feed sync changed an event the user
	// saved.
	SavedEventUpdated Type = "saved_event_updated"
	// SavedEventRemoved reports that a feed sync deleted an event the user
	// saved.
	SavedEventRemoved Type = "saved_event_removed"
	// System covers everything else the app wants to tell the user.
	System Type = "system"
)

// DataKeyEventPk is the data key carrying the deep-link payload: the pk of
// the event a notification refers to, for "open details on tap".
const DataKeyEventPk = "event_pk"

// Status represents the status of a notification
type Status string

const (
	// Unread status for new notifications
	Unread Status = "UNREAD"
	// Read status for viewed notifications
	Read Status = "READ"
)

// StringMap stores string-to-string mappings as a JSON text column
type StringMap map[string]string

func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(map[string]string)
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal JSON value: %v", value)
	}

	result := make(map[string]string)
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*m = result
	return nil
}

func (m StringMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Notification represents one user-visible alert.
type Notification struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Type      Type       `json:"type" gorm:"type:text;not null;index"`
	Title     string     `json:"title" gorm:"type:text;not null"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	Status    Status     `json:"status" gorm:"type:text;not null;default:'UNREAD';index"`
	Data      StringMap  `json:"data" gorm:"type:text"`
	CreatedAt time.Time  `json:"created_at" gorm:"not null;index"`
	ReadAt    *time.Time `json:"read_at"`
}

// TableName specifies the notifications table name.
func (Notification) TableName() string { return "notifications" }

// EventPk returns the deep-link event pk carried by the notification, if
// any.
func (n *Notification) EventPk() string {
	return n.Data[DataKeyEventPk]
}

// fill sets default values before the notification is stored.
func (n *Notification) fill() {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Status == "" {
		n.Status = Unread
	}
	if n.Data == nil {
		n.Data = make(StringMap)
	}
}
