package transport

type ProfileUpdateRequest struct {
	Email     string            `json:"email"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Role      string            `json:"role"`
	Status    string            `json:"status"`
	Meta      map[string]string `json:"metadata"`
}

// EventRequest describes one event inside a task write. An empty ID means
// "create"; a known ID means "update in place".
type EventRequest struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Notes           string   `json:"notes"`
	Status          string   `json:"status"`
	Start           string   `json:"start"`
	End             string   `json:"end"`
	CollaboratorIDs []string `json:"collaborator_ids"`
}

// TaskRequest carries the full desired state of a task and its events.
type TaskRequest struct {
	Title          string         `json:"title"`
	CategoryID     string         `json:"category_id"`
	ParticipantIDs []string       `json:"participant_ids"`
	Events         []EventRequest `json:"events"`
}

type EventStatusRequest struct {
	Status string `json:"status"`
}

type CollaboratorRequest struct {
	CollaboratorID string `json:"collaborator_id"`
}

type InvitationRequest struct {
	Email string `json:"email"`
}

type AuthLoginRequest struct {
	UserID string `json:"user_id"`
	TTL    int    `json:"ttl_seconds"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
	TTL       int    `json:"ttl_seconds"`
}
