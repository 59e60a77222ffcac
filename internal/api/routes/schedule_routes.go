package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/cornell-dti/o-week-android-sub000/internal/api/handlers"
)

// ScheduleRoutes manages schedule, sync and preference endpoint routes
type ScheduleRoutes struct {
	schedule    *handlers.ScheduleHandler
	sync        *handlers.SyncHandler
	preferences *handlers.PreferencesHandler
}

// NewScheduleRoutes creates a new schedule routes handler
func NewScheduleRoutes(schedule *handlers.ScheduleHandler, sync *handlers.SyncHandler, preferences *handlers.PreferencesHandler) *ScheduleRoutes {
	return &ScheduleRoutes{
		schedule:    schedule,
		sync:        sync,
		preferences: preferences,
	}
}

// RegisterRoutes registers schedule routes with the provided router
func (r *ScheduleRoutes) RegisterRoutes(router *gin.Engine) {
	scheduleRoutes := router.Group("/api/schedule")
	{
		scheduleRoutes.GET("/days", r.schedule.ListDays)
		scheduleRoutes.GET("/days/:date", r.schedule.EventsOn)
		scheduleRoutes.GET("/days/:date/selected", r.schedule.SelectedEventsOn)
		scheduleRoutes.GET("/events/:pk", r.schedule.GetEvent)
		scheduleRoutes.POST("/events/:pk/select", r.schedule.SelectEvent)
		scheduleRoutes.DELETE("/events/:pk/select", r.schedule.DeselectEvent)
		scheduleRoutes.GET("/categories", r.schedule.ListCategories)
	}

	syncRoutes := router.Group("/api/sync")
	{
		syncRoutes.POST("", r.sync.TriggerSync)
		syncRoutes.GET("/status", r.sync.Status)
	}

	preferenceRoutes := router.Group("/api/preferences")
	{
		preferenceRoutes.GET("", r.preferences.GetPreferences)
		preferenceRoutes.PUT("", r.preferences.UpdatePreferences)
	}
}
