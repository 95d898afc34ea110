package domain

import "time"

// InvitationStatus tracks the lifecycle of a contact invitation.
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusRejected InvitationStatus = "rejected"
)

// Invitation is a contact request from one user to an email address.
// ToUserID is empty while the invited address has no registered account.
type Invitation struct {
	ID         string           `json:"id"`
	FromUserID string           `json:"from_user_id"`
	ToUserID   string           `json:"to_user_id,omitempty"`
	Email      string           `json:"email"`
	Status     InvitationStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (i *Invitation) IsPending() bool {
	return i != nil && i.Status == InvitationStatusPending
}
