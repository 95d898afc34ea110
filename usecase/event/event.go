// Package event covers the single-event mutation paths that must keep the
// owning task's metadata consistent without a full task rewrite.
package event

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/planline/backend/domain"
	"github.com/planline/backend/repository"
	"github.com/planline/backend/usecase"
)

type UseCase struct {
	events repository.EventRepository
	tasks  repository.TaskRepository
	tx     repository.TxManager
	bus    usecase.EventPublisher
	logger *zap.Logger
}

func New(
	events repository.EventRepository,
	tasks repository.TaskRepository,
	tx repository.TxManager,
	bus usecase.EventPublisher,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		events: events,
		tasks:  tasks,
		tx:     tx,
		bus:    bus,
		logger: logger,
	}
}

func (uc *UseCase) Get(ctx context.Context, id string) (*domain.Event, error) {
	return uc.events.GetByID(ctx, id)
}

// Calendar returns the user's events for one month.
func (uc *UseCase) Calendar(ctx context.Context, userID string, year int, month int) ([]domain.Event, error) {
	if month < 1 || month > 12 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "month must be between 1 and 12")
	}
	if year < 1900 || year > 2100 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "year must be between 1900 and 2100")
	}
	return uc.events.ListByUserAndMonth(ctx, userID, year, time.Month(month))
}

// UpdateStatus changes one event's status and recomputes the owning task's
// metadata from all sibling events inside the same transaction, so the event
// and the task can never disagree.
func (uc *UseCase) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	var event *domain.Event

	err := uc.tx.RunInTx(ctx, func(ctx context.Context) error {
		updated, err := uc.events.UpdateStatus(ctx, id, status)
		if err != nil {
			return err
		}

		siblings, err := uc.events.FindByTaskID(ctx, updated.TaskID)
		if err != nil {
			return err
		}
		if err := uc.tasks.UpdateMetadata(ctx, updated.TaskID, eventIDs(siblings), domain.ComputeMetadata(siblings)); err != nil {
			return err
		}
		event = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Delete removes one event and refreshes the owning task's event-id list and
// metadata transactionally.
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	return uc.tx.RunInTx(ctx, func(ctx context.Context) error {
		event, err := uc.events.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := uc.events.Delete(ctx, id); err != nil {
			return err
		}

		remaining, err := uc.events.FindByTaskID(ctx, event.TaskID)
		if err != nil {
			return err
		}
		return uc.tasks.UpdateMetadata(ctx, event.TaskID, eventIDs(remaining), domain.ComputeMetadata(remaining))
	})
}

// AssignCollaborator adds a collaborator to an event and publishes the
// assignment so the notifier can inform them.
func (uc *UseCase) AssignCollaborator(ctx context.Context, actorID, eventID, collaboratorID string) (*domain.Event, error) {
	if collaboratorID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "collaborator id is required")
	}

	event, err := uc.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.HasCollaborator(collaboratorID) {
		return event, nil
	}

	event.CollaboratorIDs = append(event.CollaboratorIDs, collaboratorID)
	if err := uc.events.Update(ctx, event); err != nil {
		return nil, err
	}

	if uc.bus != nil {
		uc.bus.Publish(ctx, domain.EventAssigned{
			EventID:        event.ID,
			EventTitle:     event.Title,
			CollaboratorID: collaboratorID,
			AssignedBy:     actorID,
			Timestamp:      time.Now(),
		})
	}
	return event, nil
}

// RemoveCollaborator drops a collaborator from an event and publishes the
// deallocation.
func (uc *UseCase) RemoveCollaborator(ctx context.Context, actorID, eventID, collaboratorID string) (*domain.Event, error) {
	event, err := uc.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.HasCollaborator(collaboratorID) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "collaborator is not assigned to this event")
	}

	kept := event.CollaboratorIDs[:0:0]
	for _, id := range event.CollaboratorIDs {
		if id != collaboratorID {
			kept = append(kept, id)
		}
	}
	event.CollaboratorIDs = kept
	if err := uc.events.Update(ctx, event); err != nil {
		return nil, err
	}

	if uc.bus != nil {
		uc.bus.Publish(ctx, domain.EventDeallocated{
			EventID:        event.ID,
			EventTitle:     event.Title,
			CollaboratorID: collaboratorID,
			DeallocatedBy:  actorID,
			Timestamp:      time.Now(),
		})
	}
	return event, nil
}

func eventIDs(events []domain.Event) []string {
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	return ids
}
