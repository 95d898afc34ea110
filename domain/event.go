package domain

import "time"

// EventStatus tracks the completion state of a single event.
type EventStatus string

const (
	EventStatusPending    EventStatus = "pending"
	EventStatusInProgress EventStatus = "in_progress"
	EventStatusDone       EventStatus = "done"
)

// IsValid reports whether the status is one of the known values.
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusPending, EventStatusInProgress, EventStatusDone:
		return true
	}
	return false
}

// Event is a time-boxed unit of work belonging to exactly one task.
type Event struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Notes           string      `json:"notes,omitempty"`
	Status          EventStatus `json:"status"`
	Start           time.Time   `json:"start"`
	End             time.Time   `json:"end"`
	TaskID          string      `json:"task_id"`
	CreatedBy       string      `json:"created_by"`
	CollaboratorIDs []string    `json:"collaborator_ids"`
	// LastNotificationSent guards against duplicate reminders: the scheduler
	// only selects events where it is unset.
	LastNotificationSent *time.Time `json:"last_notification_sent,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// HasValidWindow reports whether the event carries a usable start/end pair.
func (e *Event) HasValidWindow() bool {
	return e != nil && !e.Start.IsZero() && !e.End.IsZero() && e.End.After(e.Start)
}

func (e *Event) IsDone() bool {
	return e != nil && e.Status == EventStatusDone
}

// HasCollaborator reports whether the given user collaborates on the event.
func (e *Event) HasCollaborator(userID string) bool {
	if e == nil {
		return false
	}
	for _, id := range e.CollaboratorIDs {
		if id == userID {
			return true
		}
	}
	return false
}
