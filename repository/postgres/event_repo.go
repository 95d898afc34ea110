package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planline/backend/domain"
	"github.com/planline/backend/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository returns a Postgres-backed implementation of EventRepository.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

const eventColumns = `id, title, notes, status, start_at, end_at, task_id, created_by,
	collaborator_ids, last_notification_sent, created_at, updated_at`

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	row := db(ctx, r.pool).QueryRow(ctx, query, id)
	return scanEvent(row)
}

func (r *eventRepository) FindByTaskID(ctx context.Context, taskID string) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE task_id = $1 ORDER BY start_at`
	rows, err := db(ctx, r.pool).Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *eventRepository) ListByUserAndMonth(ctx context.Context, userID string, year int, month time.Month) ([]domain.Event, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	query := `
	SELECT ` + eventColumns + `
	FROM events
	WHERE (created_by = $1 OR $1 = ANY(collaborator_ids))
	  AND start_at >= $2 AND start_at < $3
	ORDER BY start_at
	`
	rows, err := db(ctx, r.pool).Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	if event == nil {
		return nil, domain.ErrInvalidPayload
	}
	if !event.HasValidWindow() {
		return nil, domain.ErrInvalidTimeRange
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Status == "" {
		event.Status = domain.EventStatusPending
	}

	const query = `
	INSERT INTO events (id, title, notes, status, start_at, end_at, task_id, created_by, collaborator_ids)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at, updated_at
	`
	if err := db(ctx, r.pool).QueryRow(ctx, query,
		event.ID,
		event.Title,
		event.Notes,
		string(event.Status),
		event.Start,
		event.End,
		event.TaskID,
		event.CreatedBy,
		textArray(event.CollaboratorIDs),
	).Scan(&event.CreatedAt, &event.UpdatedAt); err != nil {
		return nil, err
	}
	return event, nil
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return domain.ErrInvalidPayload
	}
	if !event.HasValidWindow() {
		return domain.ErrInvalidTimeRange
	}

	const query = `
	UPDATE events
	SET title = $2,
		notes = $3,
		status = $4,
		start_at = $5,
		end_at = $6,
		collaborator_ids = $7,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	if err := db(ctx, r.pool).QueryRow(ctx, query,
		event.ID,
		event.Title,
		event.Notes,
		string(event.Status),
		event.Start,
		event.End,
		textArray(event.CollaboratorIDs),
	).Scan(&event.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEventNotFound
		}
		return err
	}
	return nil
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	query := `
	UPDATE events
	SET status = $2, updated_at = NOW()
	WHERE id = $1
	RETURNING ` + eventColumns
	row := db(ctx, r.pool).QueryRow(ctx, query, id, string(status))
	return scanEvent(row)
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM events WHERE id = $1`
	tag, err := db(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *eventRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `DELETE FROM events WHERE id = ANY($1)`
	_, err := db(ctx, r.pool).Exec(ctx, query, ids)
	return err
}

func (r *eventRepository) FindStartingBetween(ctx context.Context, from, to time.Time) ([]repository.ReminderEvent, error) {
	const query = `
	SELECT e.id, e.title, e.notes, e.status, e.start_at, e.end_at, e.task_id, e.created_by,
		e.collaborator_ids, e.last_notification_sent, e.created_at, e.updated_at,
		t.created_by
	FROM events e
	JOIN tasks t ON t.id = e.task_id
	WHERE e.start_at >= $1 AND e.start_at < $2
	  AND e.last_notification_sent IS NULL
	ORDER BY e.start_at
	`
	rows, err := db(ctx, r.pool).Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.ReminderEvent
	for rows.Next() {
		var re repository.ReminderEvent
		var status string
		if err := rows.Scan(
			&re.ID,
			&re.Title,
			&re.Notes,
			&status,
			&re.Start,
			&re.End,
			&re.TaskID,
			&re.CreatedBy,
			&re.CollaboratorIDs,
			&re.LastNotificationSent,
			&re.CreatedAt,
			&re.UpdatedAt,
			&re.TaskCreatedBy,
		); err != nil {
			return nil, err
		}
		re.Event.Status = domain.EventStatus(status)
		out = append(out, re)
	}
	return out, rows.Err()
}

func (r *eventRepository) MarkNotified(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE events SET last_notification_sent = $2 WHERE id = $1`
	tag, err := db(ctx, r.pool).Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func scanEvent(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Event, error) {
	var event domain.Event
	var status string

	if err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Notes,
		&status,
		&event.Start,
		&event.End,
		&event.TaskID,
		&event.CreatedBy,
		&event.CollaboratorIDs,
		&event.LastNotificationSent,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}

	event.Status = domain.EventStatus(status)
	return &event, nil
}

func collectEvents(rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}
