package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cornell-dti/o-week-android-sub000/internal/api/handlers"
	"github.com/cornell-dti/o-week-android-sub000/internal/api/middleware"
	"github.com/cornell-dti/o-week-android-sub000/internal/api/routes"
	"github.com/cornell-dti/o-week-android-sub000/internal/clients/feed"
	"github.com/cornell-dti/o-week-android-sub000/internal/domain/reminder"
	"github.com/cornell-dti/o-week-android-sub000/internal/domain/schedule"
	syncdomain "github.com/cornell-dti/o-week-android-sub000/internal/domain/sync"
	"github.com/cornell-dti/o-week-android-sub000/internal/infrastructure/alarm"
	"github.com/cornell-dti/o-week-android-sub000/internal/infrastructure/cache"
	"github.com/cornell-dti/o-week-android-sub000/internal/infrastructure/persistence/sqlite"
	"github.com/cornell-dti/o-week-android-sub000/internal/infrastructure/scheduler"
	"github.com/cornell-dti/o-week-android-sub000/pkg/config"
	"github.com/cornell-dti/o-week-android-sub000/pkg/logger"
)

// RequestLoggerMiddleware logs all incoming HTTP requests
func RequestLoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Info("Request completed",
			zap.String("path", path),
			zap.String("method", method),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("") // Empty string will make it search in default locations
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	log := logger.NewLoggerWithLevel(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	log.Info("Configuration loaded successfully")
	log.Info("Server mode: " + cfg.Server.Mode)

	// Set up Gin
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Add middleware
	metrics := middleware.NewMetricsMiddleware()
	router.Use(gin.Recovery())
	router.Use(RequestLoggerMiddleware(log))
	router.Use(metrics.CollectMetrics())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  len(cfg.CORS.AllowedOrigins) == 0,
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	// Add Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Open the local database
	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	stateStore := sqlite.NewStateStore(db)

	// Restore the schedule snapshot before anything can observe the store
	scheduleService := schedule.NewService(stateStore, log.Logger)
	version, err := scheduleService.Load()
	if err != nil {
		log.Fatal("Failed to restore schedule state", zap.Error(err))
	}
	log.Info("Schedule state restored", zap.Int64("version", version))

	// Initialize notification system
	notificationSystem, err := SetupNotificationSystem(
		db,
		log,
		cfg.Server.Mode != "production",
	)
	if err != nil {
		log.Fatal("Failed to initialize notification system", zap.Error(err))
	}
	scheduleService.Register(notificationSystem.Notifier)

	// Reminders: local alarms driven by schedule changes
	alarms := alarm.NewTimerService(log.Logger)
	reminderService := reminder.NewService(
		scheduleService,
		alarms,
		stateStore,
		notificationSystem.Notifier,
		log.Logger,
	)
	if err := reminderService.SeedDefaults(reminder.Preferences{
		Policy:      reminder.Policy(cfg.Reminders.DefaultPolicy),
		LeadMinutes: cfg.Reminders.DefaultLeadMinutes,
		StudentType: schedule.StudentType(cfg.Reminders.DefaultStudentType),
	}); err != nil {
		log.Warn("Invalid reminder defaults in config, using built-ins", zap.Error(err))
	}
	if err := reminderService.LoadPreferences(); err != nil {
		log.Warn("Failed to load reminder preferences, using defaults", zap.Error(err))
	}
	alarms.SetHandler(reminderService.OnAlarmFired)
	scheduleService.Register(reminderService)
	reminderService.RescheduleAll(time.Now())
	defer alarms.Stop()

	// Feed sync: reconciler plus the cron runner polling the remote feed
	feedClient := feed.NewClient(cfg.Feed.BaseURL, cfg.Feed.Timeout, log.Logger)
	reconciler := syncdomain.NewReconciler(scheduleService, stateStore, log.Logger)
	reconciler.SetVersion(version)

	runner := scheduler.NewRunner(feedClient, reconciler, cfg.Feed.PollSpec, log)
	if err := runner.Start(); err != nil {
		log.Fatal("Failed to start sync runner", zap.Error(err))
	}
	defer runner.Stop()

	// Optional Redis cache for day listings
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		redisConfig := cache.NewConfigFromEnv(cfg)
		redisClient, err = cache.NewRedisClient(redisConfig, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()

		// Drop cached day listings whenever the store changes
		cacheClient := redisClient
		scheduleService.Register(schedule.ObserverFunc(func(schedule.Change) {
			go func() {
				if err := cacheClient.ClearByPattern(context.Background(), "days:*"); err != nil {
					log.Warn("Failed to invalidate day cache", zap.Error(err))
				}
			}()
		}))

		router.GET("/health/cache", func(c *gin.Context) {
			if err := cacheClient.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":    "unhealthy",
					"component": "cache",
					"error":     err.Error(),
				})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"status":    "healthy",
				"component": "cache",
			})
		})
	}

	// Initialize handlers
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, redisClient)
	syncHandler := handlers.NewSyncHandler(runner, reconciler)
	preferencesHandler := handlers.NewPreferencesHandler(reminderService)
	notificationHandler := handlers.NewNotificationHandler(notificationSystem.Service, log)

	// Set up routes
	routes.SetupHealthRoutes(router, db)

	scheduleRoutes := routes.NewScheduleRoutes(scheduleHandler, syncHandler, preferencesHandler)
	scheduleRoutes.RegisterRoutes(router)
	log.Info("Registered schedule routes at /api/schedule")

	notificationRoutes := routes.NewNotificationRoutes(notificationHandler)
	notificationRoutes.RegisterRoutes(router)
	log.Info("Registered notification routes at /api/notifications")

	// Start server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	// Graceful shutdown
	go func() {
		log.Info(fmt.Sprintf("Server starting on port %d", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Info("Shutting down server...")
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited properly")
}
