package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planline/backend/domain"
	"github.com/planline/backend/repository"
)

type memEventRepo struct {
	mu     sync.Mutex
	events map[string]domain.Event
}

func newMemEventRepo(events ...domain.Event) *memEventRepo {
	repo := &memEventRepo{events: make(map[string]domain.Event)}
	for _, ev := range events {
		repo.events[ev.ID] = ev
	}
	return repo
}

func (r *memEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return &ev, nil
}

func (r *memEventRepo) FindByTaskID(ctx context.Context, taskID string) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, ev := range r.events {
		if ev.TaskID == taskID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *memEventRepo) ListByUserAndMonth(ctx context.Context, userID string, year int, month time.Month) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, ev := range r.events {
		if ev.CreatedBy != userID && !ev.HasCollaborator(userID) {
			continue
		}
		if ev.Start.Year() == year && ev.Start.Month() == month {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *memEventRepo) Create(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.ID] = *event
	return event, nil
}

func (r *memEventRepo) Update(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return domain.ErrEventNotFound
	}
	r.events[event.ID] = *event
	return nil
}

func (r *memEventRepo) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	ev.Status = status
	r.events[id] = ev
	return &ev, nil
}

func (r *memEventRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *memEventRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.events, id)
	}
	return nil
}

func (r *memEventRepo) FindStartingBetween(ctx context.Context, from, to time.Time) ([]repository.ReminderEvent, error) {
	return nil, nil
}

func (r *memEventRepo) MarkNotified(ctx context.Context, id string, at time.Time) error {
	return nil
}

type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]domain.Task
}

func newMemTaskRepo(tasks ...domain.Task) *memTaskRepo {
	repo := &memTaskRepo{tasks: make(map[string]domain.Task)}
	for _, task := range tasks {
		repo.tasks[task.ID] = task
	}
	return repo
}

func (r *memTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (r *memTaskRepo) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return nil, nil
}

func (r *memTaskRepo) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = *task
	return task, nil
}

func (r *memTaskRepo) Update(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = *task
	return nil
}

func (r *memTaskRepo) UpdateMetadata(ctx context.Context, taskID string, eventIDs []string, meta domain.TaskMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	task.EventIDs = eventIDs
	task.TaskMetadata = meta
	r.tasks[taskID] = task
	return nil
}

func (r *memTaskRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingBus struct {
	mu     sync.Mutex
	events []domain.BusEvent
}

func (b *recordingBus) Publish(ctx context.Context, event domain.BusEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func at(hour int) time.Time {
	return time.Date(2026, 4, 5, hour, 0, 0, 0, time.UTC)
}

func TestUpdateStatus_RecomputesTaskMetadata(t *testing.T) {
	events := newMemEventRepo(
		domain.Event{ID: "ev-1", TaskID: "task-1", Status: domain.EventStatusDone, Start: at(9), End: at(10)},
		domain.Event{ID: "ev-2", TaskID: "task-1", Status: domain.EventStatusPending, Start: at(11), End: at(12)},
	)
	tasks := newMemTaskRepo(domain.Task{ID: "task-1", Title: "Two events"})
	uc := New(events, tasks, passthroughTx{}, nil, nil)

	updated, err := uc.UpdateStatus(context.Background(), "ev-2", domain.EventStatusDone)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusDone, updated.Status)

	task := tasks.tasks["task-1"]
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	assert.Equal(t, 2.0, task.DurationHours)
}

func TestUpdateStatus_UnknownEvent(t *testing.T) {
	uc := New(newMemEventRepo(), newMemTaskRepo(), passthroughTx{}, nil, nil)
	_, err := uc.UpdateStatus(context.Background(), "missing", domain.EventStatusDone)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestDelete_RefreshesOwningTask(t *testing.T) {
	events := newMemEventRepo(
		domain.Event{ID: "ev-1", TaskID: "task-1", Status: domain.EventStatusDone, Start: at(9), End: at(10)},
		domain.Event{ID: "ev-2", TaskID: "task-1", Status: domain.EventStatusPending, Start: at(11), End: at(12)},
	)
	tasks := newMemTaskRepo(domain.Task{ID: "task-1", Title: "Shrinking"})
	uc := New(events, tasks, passthroughTx{}, nil, nil)

	require.NoError(t, uc.Delete(context.Background(), "ev-2"))

	task := tasks.tasks["task-1"]
	assert.Equal(t, []string{"ev-1"}, task.EventIDs)
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
}

func TestDelete_LastEventResetsMetadata(t *testing.T) {
	events := newMemEventRepo(
		domain.Event{ID: "ev-1", TaskID: "task-1", Status: domain.EventStatusDone, Start: at(9), End: at(10)},
	)
	tasks := newMemTaskRepo(domain.Task{
		ID:    "task-1",
		Title: "Emptying",
		TaskMetadata: domain.TaskMetadata{
			Progress: 100,
			Status:   domain.TaskStatusCompleted,
		},
	})
	uc := New(events, tasks, passthroughTx{}, nil, nil)

	require.NoError(t, uc.Delete(context.Background(), "ev-1"))

	task := tasks.tasks["task-1"]
	assert.Empty(t, task.EventIDs)
	assert.Zero(t, task.Progress)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
}

func TestCalendar_ValidatesInput(t *testing.T) {
	uc := New(newMemEventRepo(), newMemTaskRepo(), passthroughTx{}, nil, nil)

	_, err := uc.Calendar(context.Background(), "user-1", 2026, 0)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.Calendar(context.Background(), "user-1", 2026, 13)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.Calendar(context.Background(), "user-1", 1800, 6)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestCalendar_ReturnsUserEventsForMonth(t *testing.T) {
	events := newMemEventRepo(
		domain.Event{ID: "mine", CreatedBy: "user-1", Start: at(9), End: at(10)},
		domain.Event{ID: "shared", CreatedBy: "other", CollaboratorIDs: []string{"user-1"}, Start: at(11), End: at(12)},
		domain.Event{ID: "foreign", CreatedBy: "other", Start: at(13), End: at(14)},
	)
	uc := New(events, newMemTaskRepo(), passthroughTx{}, nil, nil)

	out, err := uc.Calendar(context.Background(), "user-1", 2026, 4)
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestAssignCollaborator(t *testing.T) {
	events := newMemEventRepo(
		domain.Event{ID: "ev-1", TaskID: "task-1", Title: "Standup", Start: at(9), End: at(10)},
	)
	bus := &recordingBus{}
	uc := New(events, newMemTaskRepo(), passthroughTx{}, bus, nil)

	updated, err := uc.AssignCollaborator(context.Background(), "owner-1", "ev-1", "user-9")
	require.NoError(t, err)
	assert.True(t, updated.HasCollaborator("user-9"))

	require.Len(t, bus.events, 1)
	payload, ok := bus.events[0].(domain.EventAssigned)
	require.True(t, ok)
	assert.Equal(t, "ev-1", payload.EventID)
	assert.Equal(t, "user-9", payload.CollaboratorID)
	assert.Equal(t, "owner-1", payload.AssignedBy)
}

func TestAssignCollaborator_AlreadyAssignedIsIdempotent(t *testing.T) {
	events := newMemEventRepo(
		domain.Event{ID: "ev-1", CollaboratorIDs: []string{"user-9"}, Start: at(9), End: at(10)},
	)
	bus := &recordingBus{}
	uc := New(events, newMemTaskRepo(), passthroughTx{}, bus, nil)

	_, err := uc.AssignCollaborator(context.Background(), "owner-1", "ev-1", "user-9")
	require.NoError(t, err)
	assert.Empty(t, bus.events, "no event for a no-op assignment")
}

func TestRemoveCollaborator(t *testing.T) {
	events := newMemEventRepo(
		domain.Event{ID: "ev-1", Title: "Standup", CollaboratorIDs: []string{"user-9", "user-8"}, Start: at(9), End: at(10)},
	)
	bus := &recordingBus{}
	uc := New(events, newMemTaskRepo(), passthroughTx{}, bus, nil)

	updated, err := uc.RemoveCollaborator(context.Background(), "owner-1", "ev-1", "user-9")
	require.NoError(t, err)
	assert.False(t, updated.HasCollaborator("user-9"))
	assert.True(t, updated.HasCollaborator("user-8"))

	require.Len(t, bus.events, 1)
	payload, ok := bus.events[0].(domain.EventDeallocated)
	require.True(t, ok)
	assert.Equal(t, "user-9", payload.CollaboratorID)
}

func TestRemoveCollaborator_NotAssigned(t *testing.T) {
	events := newMemEventRepo(domain.Event{ID: "ev-1", Start: at(9), End: at(10)})
	uc := New(events, newMemTaskRepo(), passthroughTx{}, nil, nil)

	_, err := uc.RemoveCollaborator(context.Background(), "owner-1", "ev-1", "user-9")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}
