package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planline/backend/domain"
	"github.com/planline/backend/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, title, category_id, created_by, participant_ids, event_ids,
	beginning_date, completion_date, duration_hours, progress, status, created_at, updated_at`

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	row := db(ctx, r.pool).QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE ($1 = '' OR created_by = $1 OR $1 = ANY(participant_ids))
	  AND ($2 = '' OR status = $2)
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := db(ctx, r.pool).Query(ctx, query, filter.UserID, filter.Status, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}

	const query = `
	INSERT INTO tasks (id, title, category_id, created_by, participant_ids, event_ids,
		beginning_date, completion_date, duration_hours, progress, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING created_at, updated_at
	`
	if err := db(ctx, r.pool).QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.CategoryID,
		task.CreatedBy,
		textArray(task.ParticipantIDs),
		textArray(task.EventIDs),
		task.BeginningDate,
		task.CompletionDate,
		task.DurationHours,
		task.Progress,
		string(task.Status),
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		category_id = $3,
		participant_ids = $4,
		event_ids = $5,
		beginning_date = $6,
		completion_date = $7,
		duration_hours = $8,
		progress = $9,
		status = $10,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	if err := db(ctx, r.pool).QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.CategoryID,
		textArray(task.ParticipantIDs),
		textArray(task.EventIDs),
		task.BeginningDate,
		task.CompletionDate,
		task.DurationHours,
		task.Progress,
		string(task.Status),
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}
	return nil
}

func (r *taskRepository) UpdateMetadata(ctx context.Context, taskID string, eventIDs []string, meta domain.TaskMetadata) error {
	const query = `
	UPDATE tasks
	SET event_ids = $2,
		beginning_date = $3,
		completion_date = $4,
		duration_hours = $5,
		progress = $6,
		status = $7,
		updated_at = NOW()
	WHERE id = $1
	`
	tag, err := db(ctx, r.pool).Exec(ctx, query,
		taskID,
		textArray(eventIDs),
		meta.BeginningDate,
		meta.CompletionDate,
		meta.DurationHours,
		meta.Progress,
		string(meta.Status),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := db(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var status string

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.CategoryID,
		&task.CreatedBy,
		&task.ParticipantIDs,
		&task.EventIDs,
		&task.BeginningDate,
		&task.CompletionDate,
		&task.DurationHours,
		&task.Progress,
		&status,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	return &task, nil
}

// textArray keeps NOT NULL array columns happy when the slice is nil.
func textArray(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
