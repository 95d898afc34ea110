// Package task implements the consistency engine that keeps a task's derived
// metadata in step with its event set. Every mutation runs inside one
// transaction; metadata is never patched incrementally but recomputed from
// the full event set, so a retried operation converges to the same state.
package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/planline/backend/domain"
	"github.com/planline/backend/repository"
	"github.com/planline/backend/usecase"
)

// EventDraft is the caller-supplied shape of one event in a task write.
// A draft with the ID of an existing event updates it in place; any other
// draft inserts a new event. Events absent from the draft list are deleted.
type EventDraft struct {
	ID              string
	Title           string
	Notes           string
	Status          domain.EventStatus
	Start           time.Time
	End             time.Time
	CollaboratorIDs []string
}

// Input carries the full desired state of a task for create or update.
type Input struct {
	Title          string
	CategoryID     string
	ParticipantIDs []string
	Events         []EventDraft
}

type Engine struct {
	tasks  repository.TaskRepository
	events repository.EventRepository
	tx     repository.TxManager
	bus    usecase.EventPublisher
	logger *zap.Logger
}

func NewEngine(
	tasks repository.TaskRepository,
	events repository.EventRepository,
	tx repository.TxManager,
	bus usecase.EventPublisher,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		tasks:  tasks,
		events: events,
		tx:     tx,
		bus:    bus,
		logger: logger,
	}
}

func (e *Engine) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return e.tasks.List(ctx, filter)
}

// Get returns the task with its events attached.
func (e *Engine) Get(ctx context.Context, id string) (*domain.Task, error) {
	task, err := e.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	events, err := e.events.FindByTaskID(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Events = events
	return task, nil
}

// CreateWithEvents inserts a task together with its events atomically. A
// failure on any event aborts the whole transaction so no partial task is
// ever visible. On success one TaskAssigned event is published per
// participant, strictly after commit.
func (e *Engine) CreateWithEvents(ctx context.Context, userID string, in Input) (*domain.Task, error) {
	if err := validateDrafts(in.Events); err != nil {
		return nil, err
	}

	task := &domain.Task{
		Title:          in.Title,
		CategoryID:     in.CategoryID,
		CreatedBy:      userID,
		ParticipantIDs: in.ParticipantIDs,
	}

	err := e.tx.RunInTx(ctx, func(ctx context.Context) error {
		created, err := e.tasks.Create(ctx, task)
		if err != nil {
			return err
		}

		eventIDs := make([]string, 0, len(in.Events))
		for _, draft := range in.Events {
			inserted, err := e.insertDraft(ctx, created.ID, userID, draft)
			if err != nil {
				return err
			}
			eventIDs = append(eventIDs, inserted.ID)
		}

		created.EventIDs = eventIDs
		created.TaskMetadata = domain.ComputeMetadata(draftEvents(in.Events))
		return e.tasks.Update(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	e.publishAssigned(ctx, task, task.ParticipantIDs)
	return task, nil
}

// UpdateWithEvents rewrites a task and synchronizes its event set: drafts
// with a known id update in place, the rest insert, and events missing from
// the draft list are deleted. Metadata is recomputed from the final draft
// list inside the same transaction. After commit the participant diff is
// published as TaskAssigned / TaskDeallocated events.
func (e *Engine) UpdateWithEvents(ctx context.Context, taskID string, in Input) (*domain.Task, error) {
	if err := validateDrafts(in.Events); err != nil {
		return nil, err
	}

	var (
		task            *domain.Task
		oldParticipants []string
	)

	err := e.tx.RunInTx(ctx, func(ctx context.Context) error {
		original, err := e.tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		oldParticipants = original.ParticipantIDs

		current, err := e.events.FindByTaskID(ctx, taskID)
		if err != nil {
			return err
		}
		existing := make(map[string]struct{}, len(current))
		for _, ev := range current {
			existing[ev.ID] = struct{}{}
		}

		surviving := make(map[string]struct{}, len(in.Events))
		eventIDs := make([]string, 0, len(in.Events))
		for _, draft := range in.Events {
			if _, ok := existing[draft.ID]; draft.ID != "" && ok {
				if err := e.updateDraft(ctx, taskID, draft); err != nil {
					return err
				}
				surviving[draft.ID] = struct{}{}
				eventIDs = append(eventIDs, draft.ID)
				continue
			}
			inserted, err := e.insertDraft(ctx, taskID, original.CreatedBy, draft)
			if err != nil {
				return err
			}
			surviving[inserted.ID] = struct{}{}
			eventIDs = append(eventIDs, inserted.ID)
		}

		var orphaned []string
		for _, ev := range current {
			if _, ok := surviving[ev.ID]; !ok {
				orphaned = append(orphaned, ev.ID)
			}
		}
		if err := e.events.DeleteByIDs(ctx, orphaned); err != nil {
			return err
		}

		original.Title = in.Title
		original.CategoryID = in.CategoryID
		original.ParticipantIDs = in.ParticipantIDs
		original.EventIDs = eventIDs
		original.TaskMetadata = domain.ComputeMetadata(draftEvents(in.Events))
		if err := e.tasks.Update(ctx, original); err != nil {
			return err
		}
		task = original
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publishAssigned(ctx, task, diff(task.ParticipantIDs, oldParticipants))
	e.publishDeallocated(ctx, task, diff(oldParticipants, task.ParticipantIDs))
	return task, nil
}

// DeleteWithEvents removes a task and all of its events in one transaction.
func (e *Engine) DeleteWithEvents(ctx context.Context, taskID string) error {
	return e.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := e.tasks.GetByID(ctx, taskID); err != nil {
			return err
		}

		events, err := e.events.FindByTaskID(ctx, taskID)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(events))
		for _, ev := range events {
			ids = append(ids, ev.ID)
		}
		if err := e.events.DeleteByIDs(ctx, ids); err != nil {
			return err
		}
		return e.tasks.Delete(ctx, taskID)
	})
}

func (e *Engine) insertDraft(ctx context.Context, taskID, createdBy string, draft EventDraft) (*domain.Event, error) {
	event := &domain.Event{
		Title:           draft.Title,
		Notes:           draft.Notes,
		Status:          draft.Status,
		Start:           draft.Start,
		End:             draft.End,
		TaskID:          taskID,
		CreatedBy:       createdBy,
		CollaboratorIDs: draft.CollaboratorIDs,
	}
	return e.events.Create(ctx, event)
}

func (e *Engine) updateDraft(ctx context.Context, taskID string, draft EventDraft) error {
	event := &domain.Event{
		ID:              draft.ID,
		Title:           draft.Title,
		Notes:           draft.Notes,
		Status:          draft.Status,
		Start:           draft.Start,
		End:             draft.End,
		TaskID:          taskID,
		CollaboratorIDs: draft.CollaboratorIDs,
	}
	return e.events.Update(ctx, event)
}

func (e *Engine) publishAssigned(ctx context.Context, task *domain.Task, userIDs []string) {
	if e.bus == nil {
		return
	}
	for _, id := range userIDs {
		e.bus.Publish(ctx, domain.TaskAssigned{
			TaskID:     task.ID,
			TaskTitle:  task.Title,
			AssignedTo: id,
			AssignedBy: task.CreatedBy,
			Timestamp:  time.Now(),
		})
	}
}

func (e *Engine) publishDeallocated(ctx context.Context, task *domain.Task, userIDs []string) {
	if e.bus == nil {
		return
	}
	for _, id := range userIDs {
		e.bus.Publish(ctx, domain.TaskDeallocated{
			TaskID:          task.ID,
			TaskTitle:       task.Title,
			DeallocatedFrom: id,
			DeallocatedBy:   task.CreatedBy,
			Timestamp:       time.Now(),
		})
	}
}

func validateDrafts(drafts []EventDraft) error {
	for _, d := range drafts {
		if d.Start.IsZero() || d.End.IsZero() || !d.End.After(d.Start) {
			return domain.ErrInvalidTimeRange
		}
	}
	return nil
}

// draftEvents converts drafts to the shape the calculator needs; only
// start/end/status matter for metadata.
func draftEvents(drafts []EventDraft) []domain.Event {
	events := make([]domain.Event, 0, len(drafts))
	for _, d := range drafts {
		events = append(events, domain.Event{
			Status: d.Status,
			Start:  d.Start,
			End:    d.End,
		})
	}
	return events
}

// diff returns the elements of a that are not in b.
func diff(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, id := range b {
		seen[id] = struct{}{}
	}
	var out []string
	for _, id := range a {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
