package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service defines the notification service interface
type Service interface {
	Create(ctx context.Context, notification *Notification) error

	CreateTyped(ctx context.Context, notificationType Type, title, content string, data map[string]string) error

	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)

	List(ctx context.Context, limit, offset int) ([]*Notification, error)

	ListUnread(ctx context.Context, limit, offset int) ([]*Notification, error)

	MarkAsRead(ctx context.Context, id uuid.UUID) error

	MarkAllAsRead(ctx context.Context) error

	Delete(ctx context.Context, id uuid.UUID) error

	CountUnread(ctx context.Context) (int64, error)

	Subscribe() (<-chan *Notification, func(), error)
}

// ServiceConfig holds the configuration for the notification service
type ServiceConfig struct {
	Repository Repository
	Logger     *logrus.Logger
	SignalRepo SignalRepository
}

// serviceImpl implements the notification Service interface
type serviceImpl struct {
	repo       Repository
	logger     *logrus.Logger
	signalRepo SignalRepository
}

// NewService creates a new notification service
func NewService(config ServiceConfig) Service {
	return &serviceImpl{
		repo:       config.Repository,
		logger:     config.Logger,
		signalRepo: config.SignalRepo,
	}
}

// Create stores a new notification and publishes it to live subscribers
func (s *serviceImpl) Create(ctx context.Context, notification *Notification) error {
	if notification == nil {
		return ErrNilNotification
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logger.WithError(err).Error("Failed to create notification")
		return err
	}
	s.signalRepo.Publish(notification)
	return nil
}

// CreateTyped builds and creates a notification from its parts
func (s *serviceImpl) CreateTyped(ctx context.Context, notificationType Type, title, content string, data map[string]string) error {
	notification := &Notification{
		Type:    notificationType,
		Title:   title,
		Content: content,
		Status:  Unread,
		Data:    data,
	}
	return s.Create(ctx, notification)
}

// GetByID retrieves a notification by its ID
func (s *serviceImpl) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves notifications newest first
func (s *serviceImpl) List(ctx context.Context, limit, offset int) ([]*Notification, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListUnread retrieves unread notifications newest first
func (s *serviceImpl) ListUnread(ctx context.Context, limit, offset int) ([]*Notification, error) {
	return s.repo.ListUnread(ctx, limit, offset)
}

// MarkAsRead marks a notification as read
func (s *serviceImpl) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks every unread notification as read
func (s *serviceImpl) MarkAllAsRead(ctx context.Context) error {
	return s.repo.MarkAllAsRead(ctx)
}

// Delete deletes a notification
func (s *serviceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// CountUnread counts unread notifications
func (s *serviceImpl) CountUnread(ctx context.Context) (int64, error) {
	return s.repo.CountUnread(ctx)
}

// Subscribe registers for live notification delivery
func (s *serviceImpl) Subscribe() (<-chan *Notification, func(), error) {
	return s.signalRepo.Subscribe()
}
