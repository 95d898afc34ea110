package repository

import (
	"context"

	"github.com/planline/backend/domain"
)

type NotificationFilter struct {
	UserID string
	Type   string
	Read   *bool
	Limit  int
	Offset int
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) (*domain.Notification, error)
	List(ctx context.Context, filter NotificationFilter) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	// UpdateInvitationStatus rewrites the stored invitation status on the
	// original invitation notification so clients see accepted/rejected
	// without a duplicate record.
	UpdateInvitationStatus(ctx context.Context, invitationID string, status domain.InvitationStatus) error
	Delete(ctx context.Context, id, userID string) error
}
