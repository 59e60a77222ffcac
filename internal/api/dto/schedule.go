package dto

import (
	"time"

	"github.com/cornell-dti/o-week-android-sub000/internal/domain/schedule"
)

// EventResponse is the wire form of one event, with the caller's selection
// state attached.
type EventResponse struct {
	Pk                string    `json:"pk"`
	Name              string    `json:"name"`
	Caption           string    `json:"caption"`
	Description       string    `json:"description"`
	URL               string    `json:"url,omitempty"`
	ImageURL          string    `json:"image_url,omitempty"`
	Location          string    `json:"location"`
	Longitude         float64   `json:"longitude"`
	Latitude          float64   `json:"latitude"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	Categories        []string  `json:"categories"`
	FirstYearRequired bool      `json:"first_year_required"`
	TransferRequired  bool      `json:"transfer_required"`
	Selected          bool      `json:"selected"`
}

// EventListResponse wraps a day's events.
type EventListResponse struct {
	Date   string          `json:"date"`
	Events []EventResponse `json:"events"`
	Total  int             `json:"total"`
}

// CategoryListResponse wraps the known categories.
type CategoryListResponse struct {
	Categories []schedule.Category `json:"categories"`
	Total      int                 `json:"total"`
}

// SyncStatusResponse reports the reconciler's position.
type SyncStatusResponse struct {
	Version     int64      `json:"version"`
	LastApplied *time.Time `json:"last_applied,omitempty"`
}

// SyncResultResponse reports what a manual sync did.
type SyncResultResponse struct {
	Applied         bool  `json:"applied"`
	Version         int64 `json:"version"`
	UpdatedSelected int   `json:"updated_selected"`
	RemovedSelected int   `json:"removed_selected"`
}

// PreferencesRequest carries a reminder configuration update.
type PreferencesRequest struct {
	Policy      string `json:"policy" binding:"required"`
	LeadMinutes *int   `json:"lead_minutes" binding:"required"`
	StudentType string `json:"student_type" binding:"required"`
}

// ToEventResponse converts a domain event.
func ToEventResponse(e schedule.Event, selected bool) EventResponse {
	return EventResponse{
		Pk:                e.Pk,
		Name:              e.Name,
		Caption:           e.Caption,
		Description:       e.Description,
		URL:               e.URL,
		ImageURL:          e.ImageURL,
		Location:          e.Location,
		Longitude:         e.Longitude,
		Latitude:          e.Latitude,
		Start:             e.Start,
		End:               e.End,
		Categories:        e.Categories,
		FirstYearRequired: e.FirstYearRequired,
		TransferRequired:  e.TransferRequired,
		Selected:          selected,
	}
}
