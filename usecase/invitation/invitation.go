// Package invitation handles the contact-invitation lifecycle. State changes
// commit first; the matching bus event is published afterwards so a
// notification failure can never roll back an invitation.
package invitation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/planline/backend/domain"
	"github.com/planline/backend/repository"
	"github.com/planline/backend/usecase"
)

// EmailSender delivers the invitation email to addresses without an account.
// Delivery is outside this service's consistency boundary; failures are
// logged and the invitation stands.
type EmailSender interface {
	SendInvitation(ctx context.Context, email, inviterName, invitationID string) error
}

type UseCase struct {
	invitations repository.InvitationRepository
	users       repository.UserRepository
	bus         usecase.EventPublisher
	email       EmailSender
	logger      *zap.Logger
}

func New(
	invitations repository.InvitationRepository,
	users repository.UserRepository,
	bus usecase.EventPublisher,
	email EmailSender,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		invitations: invitations,
		users:       users,
		bus:         bus,
		email:       email,
		logger:      logger,
	}
}

func (uc *UseCase) ListForUser(ctx context.Context, userID string) ([]domain.Invitation, error) {
	return uc.invitations.ListForUser(ctx, userID)
}

// Send creates a pending invitation to the given email. When the address
// belongs to a registered user the invitation is bound to their id and they
// get an in-app notification via the bus; otherwise only the email goes out.
func (uc *UseCase) Send(ctx context.Context, fromUserID, email string) (*domain.Invitation, error) {
	if email == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "email is required")
	}

	inviter, err := uc.users.GetByID(ctx, fromUserID)
	if err != nil {
		return nil, err
	}

	invitation := &domain.Invitation{
		FromUserID: fromUserID,
		Email:      email,
		Status:     domain.InvitationStatusPending,
	}
	if invited, err := uc.users.GetByEmail(ctx, email); err == nil {
		invitation.ToUserID = invited.ID
	} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil, err
	}

	created, err := uc.invitations.Create(ctx, invitation)
	if err != nil {
		return nil, err
	}

	if uc.email != nil {
		if err := uc.email.SendInvitation(ctx, email, inviter.FullName(), created.ID); err != nil {
			uc.logger.Warn("invitation email failed",
				zap.String("invitation_id", created.ID),
				zap.Error(err))
		}
	}

	if uc.bus != nil {
		uc.bus.Publish(ctx, domain.InvitationSent{
			InvitationID: created.ID,
			FromUserID:   created.FromUserID,
			ToUserID:     created.ToUserID,
			Email:        created.Email,
			Timestamp:    time.Now(),
		})
	}
	return created, nil
}

// Accept marks a pending invitation accepted on behalf of the invited user
// and publishes InvitationAccepted. The publish is awaited so the inviter's
// notification exists before the caller's response goes out.
func (uc *UseCase) Accept(ctx context.Context, invitationID, userID string) (*domain.Invitation, error) {
	return uc.resolve(ctx, invitationID, userID, domain.InvitationStatusAccepted)
}

// Reject marks a pending invitation rejected and publishes InvitationRejected.
func (uc *UseCase) Reject(ctx context.Context, invitationID, userID string) (*domain.Invitation, error) {
	return uc.resolve(ctx, invitationID, userID, domain.InvitationStatusRejected)
}

func (uc *UseCase) resolve(ctx context.Context, invitationID, userID string, status domain.InvitationStatus) (*domain.Invitation, error) {
	invitation, err := uc.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if invitation.ToUserID != userID {
		return nil, domain.ErrUnauthorized
	}
	if !invitation.IsPending() {
		return nil, domain.NewError(domain.ErrCodeConflict, "invitation already resolved")
	}

	updated, err := uc.invitations.UpdateStatus(ctx, invitationID, status)
	if err != nil {
		return nil, err
	}

	if uc.bus != nil {
		switch status {
		case domain.InvitationStatusAccepted:
			uc.bus.Publish(ctx, domain.InvitationAccepted{
				InvitationID: updated.ID,
				FromUserID:   updated.FromUserID,
				ToUserID:     updated.ToUserID,
				Timestamp:    time.Now(),
			})
		case domain.InvitationStatusRejected:
			uc.bus.Publish(ctx, domain.InvitationRejected{
				InvitationID: updated.ID,
				FromUserID:   updated.FromUserID,
				ToUserID:     updated.ToUserID,
				Timestamp:    time.Now(),
			})
		}
	}
	return updated, nil
}
