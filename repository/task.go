package repository

import (
	"context"

	"github.com/planline/backend/domain"
)

type TaskFilter struct {
	UserID string
	Status string
	Limit  int
	Offset int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// Update persists title, category, participants, the event-id list and
	// the derived metadata in one statement.
	Update(ctx context.Context, task *domain.Task) error
	// UpdateMetadata writes only the derived fields and event-id list,
	// leaving user-editable fields untouched.
	UpdateMetadata(ctx context.Context, taskID string, eventIDs []string, meta domain.TaskMetadata) error
	Delete(ctx context.Context, id string) error
}
