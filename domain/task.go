package domain

import "time"

// TaskStatus is derived from the progress of a task's events, never set by clients.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskMetadata holds the fields computed from a task's event set.
// It is always recomputed from the full current event set inside the same
// transaction that changed the set; clients never write these fields.
type TaskMetadata struct {
	BeginningDate  string     `json:"beginning_date"`
	CompletionDate string     `json:"completion_date"`
	DurationHours  float64    `json:"duration_hours"`
	Progress       int        `json:"progress"`
	Status         TaskStatus `json:"status"`
}

// Task is an aggregate of time-boxed events owned by a user.
type Task struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	CategoryID     string   `json:"category_id,omitempty"`
	CreatedBy      string   `json:"created_by"`
	ParticipantIDs []string `json:"participant_ids"`
	EventIDs       []string `json:"event_ids"`
	TaskMetadata
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// populated on single-task reads
	Events []Event `json:"events,omitempty"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == TaskStatusCompleted
}

// HasParticipant reports whether the given user is assigned to the task.
func (t *Task) HasParticipant(userID string) bool {
	if t == nil {
		return false
	}
	for _, id := range t.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}
