package domain

import "time"

// NotificationType classifies a notification for client-side filtering.
type NotificationType string

const (
	NotificationTypeTask       NotificationType = "task"
	NotificationTypeEvent      NotificationType = "event"
	NotificationTypeInvitation NotificationType = "invitation"
	NotificationTypeSystem     NotificationType = "system"
)

// NotificationData carries optional context attached to a notification.
type NotificationData struct {
	InvitationID     string `json:"invitation_id,omitempty"`
	InvitationStatus string `json:"invitation_status,omitempty"`
	TaskID           string `json:"task_id,omitempty"`
	TaskTitle        string `json:"task_title,omitempty"`
	EventID          string `json:"event_id,omitempty"`
	EventTitle       string `json:"event_title,omitempty"`
	EventStart       string `json:"event_start,omitempty"`
	MinutesUntil     int    `json:"minutes_until_start,omitempty"`
	ActorID          string `json:"actor_id,omitempty"`
	ActorName        string `json:"actor_name,omitempty"`
	ActionURL        string `json:"action_url,omitempty"`
}

// Notification is a persisted, per-user message produced by the notifier or
// the reminder scheduler. Clients only ever flip the Read flag.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      NotificationData `json:"data,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
