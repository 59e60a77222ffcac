package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/cornell-dti/o-week-android-sub000/internal/api/handlers"
)

// NotificationRoutes manages notification endpoint routes
type NotificationRoutes struct {
	handler *handlers.NotificationHandler
}

// NewNotificationRoutes creates a new notification routes handler
func NewNotificationRoutes(handler *handlers.NotificationHandler) *NotificationRoutes {
	return &NotificationRoutes{handler: handler}
}

// RegisterRoutes registers notification routes with the provided router
func (r *NotificationRoutes) RegisterRoutes(router *gin.Engine) {
	notificationRoutes := router.Group("/api/notifications")
	{
		notificationRoutes.GET("", r.handler.GetAll)
		notificationRoutes.GET("/unread", r.handler.GetUnread) // No cache for unread - always fresh
		notificationRoutes.GET("/count", r.handler.CountUnread)
		notificationRoutes.GET("/:id", r.handler.GetByID)

		notificationRoutes.PUT("/:id/read", r.handler.MarkAsRead)
		notificationRoutes.PUT("/read-all", r.handler.MarkAllAsRead)

		notificationRoutes.DELETE("/:id", r.handler.Delete)
	}
}
