package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/planline/backend/domain"
	"github.com/planline/backend/internal/bus"
	"github.com/planline/backend/internal/push"
	"github.com/planline/backend/repository"
	"github.com/planline/backend/usecase"
)

// Notifier is the bus subscriber that turns domain events into persisted
// notifications and real-time pushes. A failure to notify is never allowed
// to propagate back into the publisher's request: unresolvable recipients
// are logged and skipped, and store outages fall back to the outbox.
type Notifier struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	gateway       push.Gateway
	outbox        usecase.NotificationOutbox
	logger        *zap.Logger

	unsubscribe []func()
}

func NewNotifier(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	gateway push.Gateway,
	outbox usecase.NotificationOutbox,
	logger *zap.Logger,
) *Notifier {
	if gateway == nil {
		gateway = push.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		notifications: notifications,
		users:         users,
		gateway:       gateway,
		outbox:        outbox,
		logger:        logger,
	}
}

// Register subscribes the notifier to every event kind the system emits.
func (n *Notifier) Register(b *bus.Bus) {
	kinds := []domain.BusEventKind{
		domain.KindTaskAssigned,
		domain.KindTaskDeallocated,
		domain.KindEventAssigned,
		domain.KindEventDeallocated,
		domain.KindInvitationSent,
		domain.KindInvitationAccepted,
		domain.KindInvitationRejected,
	}
	for _, kind := range kinds {
		n.unsubscribe = append(n.unsubscribe, b.Subscribe(kind, n.Handle))
	}
}

// Close removes all bus subscriptions.
func (n *Notifier) Close() {
	for _, fn := range n.unsubscribe {
		fn()
	}
	n.unsubscribe = nil
}

// Handle dispatches one bus event. The union is closed, so the switch is
// exhaustive; an unknown variant indicates a missing case here.
func (n *Notifier) Handle(ctx context.Context, event domain.BusEvent) error {
	switch ev := event.(type) {
	case domain.TaskAssigned:
		return n.notify(ctx, ev.AssignedTo, &domain.Notification{
			Type:    domain.NotificationTypeTask,
			Title:   "New Task Assigned",
			Message: fmt.Sprintf("You have been assigned to the task: %s", ev.TaskTitle),
			Data: domain.NotificationData{
				TaskID:    ev.TaskID,
				TaskTitle: ev.TaskTitle,
				ActorID:   ev.AssignedBy,
			},
		})

	case domain.TaskDeallocated:
		return n.notify(ctx, ev.DeallocatedFrom, &domain.Notification{
			Type:    domain.NotificationTypeTask,
			Title:   "Task Deallocated",
			Message: fmt.Sprintf("You have been deallocated from the task: %s", ev.TaskTitle),
			Data: domain.NotificationData{
				TaskID:    ev.TaskID,
				TaskTitle: ev.TaskTitle,
				ActorID:   ev.DeallocatedBy,
			},
		})

	case domain.EventAssigned:
		return n.notify(ctx, ev.CollaboratorID, &domain.Notification{
			Type:    domain.NotificationTypeEvent,
			Title:   "New Event Assigned",
			Message: fmt.Sprintf("You have been assigned to the event: %s", ev.EventTitle),
			Data: domain.NotificationData{
				EventID:    ev.EventID,
				EventTitle: ev.EventTitle,
				ActorID:    ev.AssignedBy,
			},
		})

	case domain.EventDeallocated:
		return n.notify(ctx, ev.CollaboratorID, &domain.Notification{
			Type:    domain.NotificationTypeEvent,
			Title:   "Event Deallocated",
			Message: fmt.Sprintf("You have been deallocated from the event: %s", ev.EventTitle),
			Data: domain.NotificationData{
				EventID:    ev.EventID,
				EventTitle: ev.EventTitle,
				ActorID:    ev.DeallocatedBy,
			},
		})

	case domain.InvitationSent:
		return n.handleInvitationSent(ctx, ev)

	case domain.InvitationAccepted:
		return n.handleInvitationResolved(ctx, invitationResolution{
			invitationID: ev.InvitationID,
			inviterID:    ev.FromUserID,
			resolverID:   ev.ToUserID,
			status:       domain.InvitationStatusAccepted,
			title:        "Invitation Accepted",
			verb:         "accepted",
		})

	case domain.InvitationRejected:
		return n.handleInvitationResolved(ctx, invitationResolution{
			invitationID: ev.InvitationID,
			inviterID:    ev.FromUserID,
			resolverID:   ev.ToUserID,
			status:       domain.InvitationStatusRejected,
			title:        "Invitation Declined",
			verb:         "declined",
		})

	default:
		n.logger.Warn("unhandled bus event", zap.String("kind", string(event.Kind())))
		return nil
	}
}

func (n *Notifier) handleInvitationSent(ctx context.Context, ev domain.InvitationSent) error {
	if ev.ToUserID == "" {
		// invited address has no account yet; the email is the only channel
		n.logger.Debug("invitation sent to unregistered email", zap.String("invitation_id", ev.InvitationID))
		return nil
	}

	inviter, err := n.users.GetByID(ctx, ev.FromUserID)
	if err != nil {
		n.logger.Warn("inviter not found, skipping notification",
			zap.String("user_id", ev.FromUserID), zap.Error(err))
		return nil
	}

	return n.notify(ctx, ev.ToUserID, &domain.Notification{
		Type:    domain.NotificationTypeInvitation,
		Title:   "New Contact Invitation",
		Message: fmt.Sprintf("%s sent you a contact invitation", inviter.FullName()),
		Data: domain.NotificationData{
			InvitationID:     ev.InvitationID,
			InvitationStatus: string(domain.InvitationStatusPending),
			ActorID:          ev.FromUserID,
			ActorName:        inviter.FullName(),
			ActionURL:        fmt.Sprintf("/invitations/%s", ev.InvitationID),
		},
	})
}

type invitationResolution struct {
	invitationID string
	inviterID    string
	resolverID   string
	status       domain.InvitationStatus
	title        string
	verb         string
}

func (n *Notifier) handleInvitationResolved(ctx context.Context, res invitationResolution) error {
	resolver, err := n.users.GetByID(ctx, res.resolverID)
	if err != nil {
		n.logger.Warn("invitation resolver not found, skipping notification",
			zap.String("user_id", res.resolverID), zap.Error(err))
		return nil
	}

	// Flip the stored status on the original invitation notification so the
	// invited user's UI stops showing it as pending. No new record there.
	if err := n.notifications.UpdateInvitationStatus(ctx, res.invitationID, res.status); err != nil {
		n.logger.Warn("failed to update original invitation notification",
			zap.String("invitation_id", res.invitationID), zap.Error(err))
	}

	return n.notify(ctx, res.inviterID, &domain.Notification{
		Type:    domain.NotificationTypeInvitation,
		Title:   res.title,
		Message: fmt.Sprintf("%s %s your contact invitation", resolver.FullName(), res.verb),
		Data: domain.NotificationData{
			InvitationID:     res.invitationID,
			InvitationStatus: string(res.status),
			ActorID:          res.resolverID,
			ActorName:        resolver.FullName(),
		},
	})
}

// notify resolves the recipient, persists the notification (falling back to
// the outbox when the store is down) and pushes it in real time.
func (n *Notifier) notify(ctx context.Context, userID string, notification *domain.Notification) error {
	recipient, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Warn("notification recipient not found, skipping",
			zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	notification.UserID = recipient.ID

	if _, err := n.notifications.Create(ctx, notification); err != nil {
		if n.outbox == nil {
			return err
		}
		if deferErr := n.outbox.Defer(ctx, notification); deferErr != nil {
			return deferErr
		}
		n.logger.Warn("notification deferred to outbox",
			zap.String("user_id", userID), zap.Error(err))
	}

	if err := n.gateway.PushToUser(ctx, notification.UserID, notification); err != nil {
		// persistence already satisfies at-least-once; push is best-effort
		n.logger.Debug("real-time push skipped", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}
