package usecase

import (
	"context"

	"github.com/planline/backend/domain"
)

// EventPublisher abstracts the in-process bus so use cases stay decoupled
// from subscribers. Publish is invoked strictly after the mutation it
// describes has committed; subscriber failures never surface here.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.BusEvent)
}

// NotificationOutbox accepts notifications that could not be persisted while
// the primary store is unavailable; they are drained later (at-least-once).
type NotificationOutbox interface {
	Defer(ctx context.Context, notification *domain.Notification) error
}
