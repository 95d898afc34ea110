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

type invitationRepository struct {
	pool *pgxpool.Pool
}

// NewInvitationRepository returns a Postgres-backed InvitationRepository.
func NewInvitationRepository(pool *pgxpool.Pool) repository.InvitationRepository {
	return &invitationRepository{pool: pool}
}

const invitationColumns = `id, from_user_id, to_user_id, email, status, created_at, updated_at`

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`
	row := db(ctx, r.pool).QueryRow(ctx, query, id)
	return scanInvitation(row)
}

func (r *invitationRepository) ListForUser(ctx context.Context, userID string) ([]domain.Invitation, error) {
	query := `
	SELECT ` + invitationColumns + `
	FROM invitations
	WHERE from_user_id = $1 OR to_user_id = $1
	ORDER BY created_at DESC
	`
	rows, err := db(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	if inv == nil || inv.FromUserID == "" || inv.Email == "" {
		return nil, domain.ErrInvalidPayload
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.Status == "" {
		inv.Status = domain.InvitationStatusPending
	}

	const query = `
	INSERT INTO invitations (id, from_user_id, to_user_id, email, status)
	VALUES ($1, $2, NULLIF($3, ''), $4, $5)
	RETURNING created_at, updated_at
	`
	if err := db(ctx, r.pool).QueryRow(ctx, query,
		inv.ID,
		inv.FromUserID,
		inv.ToUserID,
		inv.Email,
		string(inv.Status),
	).Scan(&inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) (*domain.Invitation, error) {
	query := `
	UPDATE invitations
	SET status = $2, updated_at = NOW()
	WHERE id = $1
	RETURNING ` + invitationColumns
	row := db(ctx, r.pool).QueryRow(ctx, query, id, string(status))
	return scanInvitation(row)
}

func scanInvitation(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Invitation, error) {
	var inv domain.Invitation
	var toUser *string
	var status string

	if err := row.Scan(&inv.ID, &inv.FromUserID, &toUser, &inv.Email, &status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, err
	}

	if toUser != nil {
		inv.ToUserID = *toUser
	}
	inv.Status = domain.InvitationStatus(status)
	return &inv, nil
}
