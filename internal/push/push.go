// Package push delivers notifications to connected clients in real time.
// Delivery is best-effort: a user without an open channel still receives the
// persisted record.
package push

import (
	"context"

	"github.com/planline/backend/domain"
)

// Gateway pushes a notification to one user's real-time channel.
type Gateway interface {
	PushToUser(ctx context.Context, userID string, notification *domain.Notification) error
}

// Nop discards all pushes. Used in tests and when redis is not configured.
type Nop struct{}

func (Nop) PushToUser(context.Context, string, *domain.Notification) error { return nil }
