package domain

import "time"

// BusEventKind identifies a variant of the closed BusEvent union.
type BusEventKind string

const (
	KindTaskAssigned       BusEventKind = "task.assigned"
	KindTaskDeallocated    BusEventKind = "task.deallocated"
	KindEventAssigned      BusEventKind = "event.assigned"
	KindEventDeallocated   BusEventKind = "event.deallocated"
	KindInvitationSent     BusEventKind = "invitation.sent"
	KindInvitationAccepted BusEventKind = "invitation.accepted"
	KindInvitationRejected BusEventKind = "invitation.rejected"
)

// BusEvent is an immutable fact published on the in-process bus after the
// mutation it describes has committed. The set of implementations is closed;
// consumers dispatch with an exhaustive type switch.
type BusEvent interface {
	Kind() BusEventKind
}

// TaskAssigned is published once per participant added to a task.
type TaskAssigned struct {
	TaskID     string
	TaskTitle  string
	AssignedTo string
	AssignedBy string
	Timestamp  time.Time
}

// TaskDeallocated is published once per participant removed from a task.
type TaskDeallocated struct {
	TaskID          string
	TaskTitle       string
	DeallocatedFrom string
	DeallocatedBy   string
	Timestamp       time.Time
}

// EventAssigned is published when a collaborator is added to an event.
type EventAssigned struct {
	EventID        string
	EventTitle     string
	CollaboratorID string
	AssignedBy     string
	Timestamp      time.Time
}

// EventDeallocated is published when a collaborator is removed from an event.
type EventDeallocated struct {
	EventID        string
	EventTitle     string
	CollaboratorID string
	DeallocatedBy  string
	Timestamp      time.Time
}

// InvitationSent is published after an invitation is created. ToUserID is
// empty when the invited email has no registered account yet.
type InvitationSent struct {
	InvitationID string
	FromUserID   string
	ToUserID     string
	Email        string
	Timestamp    time.Time
}

// InvitationAccepted is published when the invited user accepts.
type InvitationAccepted struct {
	InvitationID string
	FromUserID   string
	ToUserID     string
	Timestamp    time.Time
}

// InvitationRejected is published when the invited user declines.
type InvitationRejected struct {
	InvitationID string
	FromUserID   string
	ToUserID     string
	Timestamp    time.Time
}

func (TaskAssigned) Kind() BusEventKind       { return KindTaskAssigned }
func (TaskDeallocated) Kind() BusEventKind    { return KindTaskDeallocated }
func (EventAssigned) Kind() BusEventKind      { return KindEventAssigned }
func (EventDeallocated) Kind() BusEventKind   { return KindEventDeallocated }
func (InvitationSent) Kind() BusEventKind     { return KindInvitationSent }
func (InvitationAccepted) Kind() BusEventKind { return KindInvitationAccepted }
func (InvitationRejected) Kind() BusEventKind { return KindInvitationRejected }
