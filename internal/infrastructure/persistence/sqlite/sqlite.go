package sqlite

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cornell-dti/o-week-android-sub000/internal/domain/notification"
)

// Open opens (or creates) the on-device database at path and migrates the
// schema. Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates every table the app persists into.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&appState{}, &notification.Notification{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
