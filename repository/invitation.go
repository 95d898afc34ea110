package repository

import (
	"context"

	"github.com/planline/backend/domain"
)

type InvitationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Invitation, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Invitation, error)
	Create(ctx context.Context, invitation *domain.Invitation) (*domain.Invitation, error)
	UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) (*domain.Invitation, error)
}
