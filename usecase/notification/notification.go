package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/planline/backend/domain"
	"github.com/planline/backend/repository"
)

type UseCase struct {
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

func New(notifications repository.NotificationRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		notifications: notifications,
		logger:        logger,
	}
}

func (uc *UseCase) List(ctx context.Context, filter repository.NotificationFilter) ([]domain.Notification, error) {
	return uc.notifications.List(ctx, filter)
}

func (uc *UseCase) CountUnread(ctx context.Context, userID string) (int, error) {
	return uc.notifications.CountUnread(ctx, userID)
}

func (uc *UseCase) MarkRead(ctx context.Context, id, userID string) error {
	return uc.notifications.MarkRead(ctx, id, userID)
}

func (uc *UseCase) MarkAllRead(ctx context.Context, userID string) error {
	return uc.notifications.MarkAllRead(ctx, userID)
}

func (uc *UseCase) Delete(ctx context.Context, id, userID string) error {
	return uc.notifications.Delete(ctx, id, userID)
}
