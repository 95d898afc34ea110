package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planline/backend/domain"
	"github.com/planline/backend/repository"
)

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository returns a Postgres-backed NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) repository.NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if n == nil || n.UserID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Type == "" {
		n.Type = domain.NotificationTypeSystem
	}

	const query = `
	INSERT INTO notifications (id, user_id, type, title, message, data, read)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at, updated_at
	`
	if err := db(ctx, r.pool).QueryRow(ctx, query,
		n.ID,
		n.UserID,
		string(n.Type),
		n.Title,
		n.Message,
		marshalJSON(n.Data),
		n.Read,
	).Scan(&n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *notificationRepository) List(ctx context.Context, filter repository.NotificationFilter) ([]domain.Notification, error) {
	const query = `
	SELECT id, user_id, type, title, message, data, read, created_at, updated_at
	FROM notifications
	WHERE user_id = $1
	  AND ($2 = '' OR type = $2)
	  AND ($3::boolean IS NULL OR read = $3)
	ORDER BY created_at DESC
	LIMIT $4 OFFSET $5
	`
	rows, err := db(ctx, r.pool).Query(ctx, query,
		filter.UserID, filter.Type, filter.Read, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read`
	var count int
	if err := db(ctx, r.pool).QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	const query = `UPDATE notifications SET read = TRUE, updated_at = NOW() WHERE id = $1 AND user_id = $2`
	tag, err := db(ctx, r.pool).Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	const query = `UPDATE notifications SET read = TRUE, updated_at = NOW() WHERE user_id = $1 AND NOT read`
	_, err := db(ctx, r.pool).Exec(ctx, query, userID)
	return err
}

func (r *notificationRepository) UpdateInvitationStatus(ctx context.Context, invitationID string, status domain.InvitationStatus) error {
	const query = `
	UPDATE notifications
	SET data = jsonb_set(data, '{invitation_status}', to_jsonb($2::text)),
		updated_at = NOW()
	WHERE data->>'invitation_id' = $1
	`
	_, err := db(ctx, r.pool).Exec(ctx, query, invitationID, string(status))
	return err
}

func (r *notificationRepository) Delete(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM notifications WHERE id = $1 AND user_id = $2`
	tag, err := db(ctx, r.pool).Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func scanNotification(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Notification, error) {
	var n domain.Notification
	var kind string
	var data []byte

	if err := row.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Message, &data, &n.Read, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}

	n.Type = domain.NotificationType(kind)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &n.Data)
	}
	return &n, nil
}
