package repository

import (
	"context"
	"time"

	"github.com/planline/backend/domain"
)

// ReminderEvent is an event selected by the reminder window query together
// with the owner of its task, so the scheduler can notify the full recipient
// set without a second round trip.
type ReminderEvent struct {
	domain.Event
	TaskCreatedBy string
}

type EventRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	FindByTaskID(ctx context.Context, taskID string) ([]domain.Event, error)
	ListByUserAndMonth(ctx context.Context, userID string, year int, month time.Month) ([]domain.Event, error)
	Create(ctx context.Context, event *domain.Event) (*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
	UpdateStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error)
	Delete(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) error
	// FindStartingBetween returns events whose start falls in [from, to)
	// and which have not yet been flagged by MarkNotified.
	FindStartingBetween(ctx context.Context, from, to time.Time) ([]ReminderEvent, error)
	MarkNotified(ctx context.Context, id string, at time.Time) error
}
