package sync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cornell-dti/o-week-android-sub000/internal/domain/schedule"
)

// EventRecord is the wire form of one event in a feed payload. Start and end
// are epoch milliseconds.
type EventRecord struct {
	Pk                string   `json:"pk"`
	Name              string   `json:"name"`
	Caption           string   `json:"caption"`
	Description       string   `json:"description"`
	URL               string   `json:"url"`
	ImageURL          string   `json:"imageUrl"`
	Location          string   `json:"location"`
	Longitude         float64  `json:"longitude"`
	Latitude          float64  `json:"latitude"`
	Start             int64    `json:"start"`
	End               int64    `json:"end"`
	Categories        []string `json:"categories"`
	FirstYearRequired bool     `json:"firstYearRequired"`
	TransferRequired  bool     `json:"transferRequired"`
}

// CategoryRecord is the wire form of one category in a feed payload.
type CategoryRecord struct {
	Pk   string `json:"pk"`
	Name string `json:"name"`
}

// EventDelta carries the changed and deleted events of one incremental
// update.
type EventDelta struct {
	Changed []EventRecord `json:"changed"`
	Deleted []string      `json:"deleted"`
}

// CategoryDelta carries the changed and deleted categories of one
// incremental update.
type CategoryDelta struct {
	Changed []CategoryRecord `json:"changed"`
	Deleted []string         `json:"deleted"`
}

// Payload is one incremental update from the orientation feed, tagged with
// the monotonic version marker to persist once it has been applied.
type Payload struct {
	Events     EventDelta    `json:"events"`
	Categories CategoryDelta `json:"categories"`
	Timestamp  int64         `json:"timestamp"`
}

// Event converts the wire record into the domain event.
func (r EventRecord) Event() schedule.Event {
	return schedule.Event{
		Pk:                r.Pk,
		Name:              r.Name,
		Caption:           r.Caption,
		Description:       r.Description,
		URL:               r.URL,
		ImageURL:          r.ImageURL,
		Location:          r.Location,
		Longitude:         r.Longitude,
		Latitude:          r.Latitude,
		Start:             time.UnixMilli(r.Start).UTC(),
		End:               time.UnixMilli(r.End).UTC(),
		Categories:        r.Categories,
		FirstYearRequired: r.FirstYearRequired,
		TransferRequired:  r.TransferRequired,
	}
}

// Category converts the wire record into the domain category.
func (r CategoryRecord) Category() schedule.Category {
	return schedule.Category{Pk: r.Pk, Name: r.Name}
}

// ParsePayload decodes and fully validates a raw feed payload. Validation
// happens before any of the payload touches the store, so a malformed record
// anywhere in the body rejects the whole payload.
func ParsePayload(raw []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Payload) validate() error {
	if p.Timestamp < 0 {
		return fmt.Errorf("%w: negative timestamp %d", ErrMalformedPayload, p.Timestamp)
	}
	for _, r := range p.Events.Changed {
		if r.Start == 0 || r.End == 0 {
			return fmt.Errorf("%w: event %q missing start or end", ErrMalformedPayload, r.Pk)
		}
		if err := r.Event().Validate(); err != nil {
			return fmt.Errorf("%w: event %q: %v", ErrMalformedPayload, r.Pk, err)
		}
	}
	for _, r := range p.Categories.Changed {
		if err := r.Category().Validate(); err != nil {
			return fmt.Errorf("%w: category %q: %v", ErrMalformedPayload, r.Pk, err)
		}
	}
	for _, pk := range p.Events.Deleted {
		if pk == "" {
			return fmt.Errorf("%w: empty pk in deleted events", ErrMalformedPayload)
		}
	}
	for _, pk := range p.Categories.Deleted {
		if pk == "" {
			return fmt.Errorf("%w: empty pk in deleted categories", ErrMalformedPayload)
		}
	}
	return nil
}
