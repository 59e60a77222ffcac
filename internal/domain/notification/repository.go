package notification

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for notification data access
type Repository interface {
	Create(ctx context.Context, notification *Notification) error

	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)

	List(ctx context.Context, limit, offset int) ([]*Notification, error)

	ListUnread(ctx context.Context, limit, offset int) ([]*Notification, error)

	MarkAsRead(ctx context.Context, id uuid.UUID) error

	MarkAllAsRead(ctx context.Context) error

	Delete(ctx context.Context, id uuid.UUID) error

	CountUnread(ctx context.Context) (int64, error)
}
