package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// sqliteRepository implements the Repository interface over the on-device
// database.
type sqliteRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository creates a notification repository over an opened database.
func NewRepository(db *gorm.DB, logger *logrus.Logger) Repository {
	return &sqliteRepository{db: db, logger: logger}
}

// Create stores a new notification
func (r *sqliteRepository) Create(ctx context.Context, notification *Notification) error {
	if notification == nil {
		return ErrNilNotification
	}
	notification.fill()

	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		r.logger.WithError(err).WithField("type", notification.Type).
			Error("Failed to store notification")
		return err
	}
	return nil
}

// GetByID retrieves a notification by its ID
func (r *sqliteRepository) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var n Notification
	err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// List retrieves notifications newest first
func (r *sqliteRepository) List(ctx context.Context, limit, offset int) ([]*Notification, error) {
	var out []*Notification
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListUnread retrieves unread notifications newest first
func (r *sqliteRepository) ListUnread(ctx context.Context, limit, offset int) ([]*Notification, error) {
	var out []*Notification
	err := r.db.WithContext(ctx).
		Where("status = ?", Unread).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkAsRead marks a notification as read
func (r *sqliteRepository) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": Read, "read_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllAsRead marks every unread notification as read
func (r *sqliteRepository) MarkAllAsRead(ctx context.Context) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&Notification{}).
		Where("status = ?", Unread).
		Updates(map[string]interface{}{"status": Read, "read_at": now}).Error
}

// Delete removes a notification
func (r *sqliteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Notification{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnread counts unread notifications
func (r *sqliteRepository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("status = ?", Unread).
		Count(&count).Error
	return count, err
}
