package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cornell-dti/o-week-android-sub000/internal/api/dto"
	"github.com/cornell-dti/o-week-android-sub000/internal/domain/schedule"
	"github.com/cornell-dti/o-week-android-sub000/internal/infrastructure/cache"
)

const dateLayout = "2006-01-02"

// ScheduleHandler handles HTTP requests for the event schedule
type ScheduleHandler struct {
	service *schedule.Service
	cache   *cache.RedisClient // nil when the response cache is disabled
}

// NewScheduleHandler creates a new schedule handler instance
func NewScheduleHandler(service *schedule.Service, cache *cache.RedisClient) *ScheduleHandler {
	return &ScheduleHandler{service: service, cache: cache}
}

// ListDays returns every date that has at least one event.
func (h *ScheduleHandler) ListDays(c *gin.Context) {
	dates := h.service.Dates()
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(dateLayout)
	}
	c.JSON(http.StatusOK, gin.H{"days": out, "total": len(out)})
}

// EventsOn returns all events for one date, oldest first.
func (h *ScheduleHandler) EventsOn(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return
	}

	cacheKey := "days:" + c.Param("date")
	if h.cache != nil {
		if cached, err := h.cache.Get(c.Request.Context(), cacheKey); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			return
		}
	}

	events := h.service.EventsOn(date)
	resp := dto.EventListResponse{
		Date:   c.Param("date"),
		Events: make([]dto.EventResponse, 0, len(events)),
		Total:  len(events),
	}
	for _, e := range events {
		resp.Events = append(resp.Events, dto.ToEventResponse(e, h.service.IsSelected(e.Pk)))
	}

	if h.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			// Best effort; a cache write failure never fails the request.
			_ = h.cache.Set(c.Request.Context(), cacheKey, string(raw), 0)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// SelectedEventsOn returns the user's saved events for one date.
func (h *ScheduleHandler) SelectedEventsOn(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return
	}

	events := h.service.SelectedEventsOn(date)
	resp := dto.EventListResponse{
		Date:   c.Param("date"),
		Events: make([]dto.EventResponse, 0, len(events)),
		Total:  len(events),
	}
	for _, e := range events {
		resp.Events = append(resp.Events, dto.ToEventResponse(e, true))
	}
	c.JSON(http.StatusOK, resp)
}

// GetEvent returns a single event by pk.
func (h *ScheduleHandler) GetEvent(c *gin.Context) {
	pk := c.Param("pk")
	e, ok := h.service.EventByPk(pk)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": schedule.ErrEventNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ToEventResponse(e, h.service.IsSelected(pk)))
}

// SelectEvent adds an event to the user's schedule.
func (h *ScheduleHandler) SelectEvent(c *gin.Context) {
	pk := c.Param("pk")
	if err := h.service.SelectEvent(pk); err != nil {
		if errors.Is(err, schedule.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		// Persistence failed: the selection holds for this session but will
		// not survive a restart.
		c.JSON(http.StatusOK, gin.H{"selected": true, "warning": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": true})
}

// DeselectEvent removes an event from the user's schedule.
func (h *ScheduleHandler) DeselectEvent(c *gin.Context) {
	pk := c.Param("pk")
	if err := h.service.DeselectEvent(pk); err != nil {
		c.JSON(http.StatusOK, gin.H{"selected": false, "warning": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": false})
}

// ListCategories returns every known category.
func (h *ScheduleHandler) ListCategories(c *gin.Context) {
	categories := h.service.Categories()
	c.JSON(http.StatusOK, dto.CategoryListResponse{
		Categories: categories,
		Total:      len(categories),
	})
}
