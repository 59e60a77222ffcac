package main

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/cornell-dti/o-week-android-sub000/internal/domain/notification"
	"github.com/cornell-dti/o-week-android-sub000/pkg/logger"
)

// NotificationSystem holds all notification-related components
type NotificationSystem struct {
	Service          notification.Service
	SignalRepository notification.SignalRepository
	Notifier         *notification.ScheduleNotifier
	Logger           *logrus.Logger
}

// SetupNotificationSystem initializes and configures all notification components
func SetupNotificationSystem(
	db *gorm.DB,
	appLogger *logger.Logger,
	isDevelopment bool,
) (*NotificationSystem, error) {
	// Initialize logger
	notifLogger := logrus.New()
	notifLogger.SetFormatter(&logrus.JSONFormatter{})
	if isDevelopment {
		notifLogger.SetLevel(logrus.DebugLevel)
	} else {
		notifLogger.SetLevel(logrus.InfoLevel)
	}

	// Initialize repositories
	repo := notification.NewRepository(db, notifLogger)
	signalRepo := notification.NewSignalRepository(100, notifLogger) // Buffer size of 100

	// Initialize notification service
	service := notification.NewService(notification.ServiceConfig{
		Repository: repo,
		Logger:     notifLogger,
		SignalRepo: signalRepo,
	})

	// Notifier bridges schedule store changes and reminder fires into the history
	notifier := notification.NewScheduleNotifier(service, notifLogger)

	appLogger.Info("Notification system started successfully")

	return &NotificationSystem{
		Service:          service,
		SignalRepository: signalRepo,
		Notifier:         notifier,
		Logger:           notifLogger,
	}, nil
}
