package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cornell-dti/o-week-android-sub000/internal/api/dto"
	"github.com/cornell-dti/o-week-android-sub000/internal/domain/reminder"
	"github.com/cornell-dti/o-week-android-sub000/internal/domain/schedule"
)

// PreferencesHandler handles the user's reminder configuration
type PreferencesHandler struct {
	reminders *reminder.Service
}

// NewPreferencesHandler creates a new preferences handler instance
func NewPreferencesHandler(reminders *reminder.Service) *PreferencesHandler {
	return &PreferencesHandler{reminders: reminders}
}

// GetPreferences returns the current reminder configuration.
func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, h.reminders.Preferences())
}

// UpdatePreferences applies a new reminder configuration and reschedules
// every alarm under it.
func (h *PreferencesHandler) UpdatePreferences(c *gin.Context) {
	var req dto.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prefs := reminder.Preferences{
		Policy:      reminder.Policy(req.Policy),
		LeadMinutes: *req.LeadMinutes,
		StudentType: schedule.StudentType(req.StudentType),
	}
	if err := h.reminders.SetPreferences(prefs); err != nil {
		switch {
		case errors.Is(err, reminder.ErrInvalidPolicy),
			errors.Is(err, reminder.ErrInvalidLeadTime),
			errors.Is(err, reminder.ErrInvalidStudentType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			// Applied for this session, persistence failed.
			c.JSON(http.StatusOK, gin.H{"preferences": prefs, "warning": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, prefs)
}
