package task

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planline/backend/domain"
	"github.com/planline/backend/repository"
)

// fakeStore holds tasks and events in memory and lets the fake transaction
// manager snapshot and restore them, so a failed transaction observably
// rolls back.
type fakeStore struct {
	mu     sync.Mutex
	tasks  map[string]domain.Task
	events map[string]domain.Event
	nextID int

	failEventTitle string // Create fails for an event with this title
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:  make(map[string]domain.Task),
		events: make(map[string]domain.Event),
	}
}

func (s *fakeStore) snapshot() (map[string]domain.Task, map[string]domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make(map[string]domain.Task, len(s.tasks))
	for k, v := range s.tasks {
		tasks[k] = v
	}
	events := make(map[string]domain.Event, len(s.events))
	for k, v := range s.events {
		events[k] = v
	}
	return tasks, events
}

func (s *fakeStore) restore(tasks map[string]domain.Task, events map[string]domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
	s.events = events
}

func (s *fakeStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

type fakeTaskRepo struct{ store *fakeStore }

func (r *fakeTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	task, ok := r.store.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (r *fakeTaskRepo) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Task
	for _, task := range r.store.tasks {
		out = append(out, task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if task.ID == "" {
		task.ID = r.store.id("task")
	}
	r.store.tasks[task.ID] = *task
	return task, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *domain.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	r.store.tasks[task.ID] = *task
	return nil
}

func (r *fakeTaskRepo) UpdateMetadata(ctx context.Context, taskID string, eventIDs []string, meta domain.TaskMetadata) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	task, ok := r.store.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	task.EventIDs = eventIDs
	task.TaskMetadata = meta
	r.store.tasks[taskID] = task
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.store.tasks, id)
	return nil
}

type fakeEventRepo struct{ store *fakeStore }

func (r *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ev, ok := r.store.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return &ev, nil
}

func (r *fakeEventRepo) FindByTaskID(ctx context.Context, taskID string) ([]domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Event
	for _, ev := range r.store.events {
		if ev.TaskID == taskID {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeEventRepo) ListByUserAndMonth(ctx context.Context, userID string, year int, month time.Month) ([]domain.Event, error) {
	return nil, nil
}

func (r *fakeEventRepo) Create(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failEventTitle != "" && event.Title == r.store.failEventTitle {
		return nil, errors.New("insert failed")
	}
	if event.ID == "" {
		event.ID = r.store.id("event")
	}
	r.store.events[event.ID] = *event
	return event, nil
}

func (r *fakeEventRepo) Update(ctx context.Context, event *domain.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.events[event.ID]; !ok {
		return domain.ErrEventNotFound
	}
	r.store.events[event.ID] = *event
	return nil
}

func (r *fakeEventRepo) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ev, ok := r.store.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	ev.Status = status
	r.store.events[id] = ev
	return &ev, nil
}

func (r *fakeEventRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(r.store.events, id)
	return nil
}

func (r *fakeEventRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, id := range ids {
		delete(r.store.events, id)
	}
	return nil
}

func (r *fakeEventRepo) FindStartingBetween(ctx context.Context, from, to time.Time) ([]repository.ReminderEvent, error) {
	return nil, nil
}

func (r *fakeEventRepo) MarkNotified(ctx context.Context, id string, at time.Time) error {
	return nil
}

// fakeTxManager snapshots the store before the callback and restores it when
// the callback fails, mirroring a database rollback.
type fakeTxManager struct{ store *fakeStore }

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tasks, events := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(tasks, events)
		return err
	}
	return nil
}

type fakeBus struct {
	mu     sync.Mutex
	events []domain.BusEvent
}

func (b *fakeBus) Publish(ctx context.Context, event domain.BusEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *fakeBus) published() []domain.BusEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.BusEvent(nil), b.events...)
}

type fixture struct {
	store  *fakeStore
	bus    *fakeBus
	engine *Engine
}

func newFixture() *fixture {
	store := newFakeStore()
	bus := &fakeBus{}
	engine := NewEngine(
		&fakeTaskRepo{store: store},
		&fakeEventRepo{store: store},
		&fakeTxManager{store: store},
		bus,
		nil,
	)
	return &fixture{store: store, bus: bus, engine: engine}
}

func draft(title string, start, end time.Time, status domain.EventStatus) EventDraft {
	return EventDraft{
		Title:  title,
		Status: status,
		Start:  start,
		End:    end,
	}
}

func window(t *testing.T, hour int) (time.Time, time.Time) {
	t.Helper()
	start := time.Date(2026, 3, 10, hour, 0, 0, 0, time.UTC)
	return start, start.Add(time.Hour)
}

func TestEngine_CreateWithEvents(t *testing.T) {
	f := newFixture()
	start1, end1 := window(t, 9)
	start2, end2 := window(t, 14)

	created, err := f.engine.CreateWithEvents(context.Background(), "owner-1", Input{
		Title:          "Release prep",
		ParticipantIDs: []string{"user-a", "user-b"},
		Events: []EventDraft{
			draft("Write notes", start1, end1, domain.EventStatusDone),
			draft("Dry run", start2, end2, domain.EventStatusPending),
		},
	})
	require.NoError(t, err)
	require.Len(t, created.EventIDs, 2)

	assert.Equal(t, "2026-03-10T09:00:00.000Z", created.BeginningDate)
	assert.Equal(t, "2026-03-10T15:00:00.000Z", created.CompletionDate)
	assert.Equal(t, 2.0, created.DurationHours)
	assert.Equal(t, 50, created.Progress)
	assert.Equal(t, domain.TaskStatusInProgress, created.Status)

	events := f.bus.published()
	require.Len(t, events, 2)
	recipients := make(map[string]bool)
	for _, ev := range events {
		payload, ok := ev.(domain.TaskAssigned)
		require.True(t, ok)
		assert.Equal(t, created.ID, payload.TaskID)
		recipients[payload.AssignedTo] = true
	}
	assert.True(t, recipients["user-a"])
	assert.True(t, recipients["user-b"])
}

func TestEngine_CreateWithEvents_RollsBackOnEventFailure(t *testing.T) {
	f := newFixture()
	f.store.failEventTitle = "Dry run"
	start1, end1 := window(t, 9)
	start2, end2 := window(t, 14)

	_, err := f.engine.CreateWithEvents(context.Background(), "owner-1", Input{
		Title:          "Release prep",
		ParticipantIDs: []string{"user-a"},
		Events: []EventDraft{
			draft("Write notes", start1, end1, domain.EventStatusPending),
			draft("Dry run", start2, end2, domain.EventStatusPending),
		},
	})
	require.Error(t, err)

	// Nothing may survive a failed transaction, and nothing is published.
	assert.Empty(t, f.store.tasks)
	assert.Empty(t, f.store.events)
	assert.Empty(t, f.bus.published())
}

func TestEngine_CreateWithEvents_RejectsInvalidWindow(t *testing.T) {
	f := newFixture()
	start, _ := window(t, 9)

	_, err := f.engine.CreateWithEvents(context.Background(), "owner-1", Input{
		Title: "Broken",
		Events: []EventDraft{
			draft("Backwards", start, start.Add(-time.Hour), domain.EventStatusPending),
		},
	})
	require.ErrorIs(t, err, domain.ErrInvalidTimeRange)
	assert.Empty(t, f.store.tasks)
}

func TestEngine_UpdateWithEvents_SynchronizesEventSet(t *testing.T) {
	f := newFixture()
	start1, end1 := window(t, 9)
	start2, end2 := window(t, 14)

	created, err := f.engine.CreateWithEvents(context.Background(), "owner-1", Input{
		Title: "Release prep",
		Events: []EventDraft{
			draft("Keep me", start1, end1, domain.EventStatusPending),
			draft("Drop me", start2, end2, domain.EventStatusPending),
		},
	})
	require.NoError(t, err)

	keptID := created.EventIDs[0]
	start3, end3 := window(t, 16)

	updated, err := f.engine.UpdateWithEvents(context.Background(), created.ID, Input{
		Title: "Release prep v2",
		Events: []EventDraft{
			{ID: keptID, Title: "Keep me (done)", Status: domain.EventStatusDone, Start: start1, End: end1},
			draft("Brand new", start3, end3, domain.EventStatusPending),
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.EventIDs, 2)

	// The dropped event is gone, the kept one updated in place, the new one
	// inserted.
	_, err = (&fakeEventRepo{store: f.store}).GetByID(context.Background(), created.EventIDs[1])
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	kept := f.store.events[keptID]
	assert.Equal(t, "Keep me (done)", kept.Title)
	assert.Equal(t, domain.EventStatusDone, kept.Status)

	assert.Equal(t, 50, updated.Progress)
	assert.Equal(t, domain.TaskStatusInProgress, updated.Status)
	assert.Equal(t, "2026-03-10T09:00:00.000Z", updated.BeginningDate)
	assert.Equal(t, "2026-03-10T17:00:00.000Z", updated.CompletionDate)
}

func TestEngine_UpdateWithEvents_PublishesParticipantDiff(t *testing.T) {
	f := newFixture()
	start, end := window(t, 9)

	created, err := f.engine.CreateWithEvents(context.Background(), "owner-1", Input{
		Title:          "Shared task",
		ParticipantIDs: []string{"user-a", "user-b"},
		Events:         []EventDraft{draft("Only event", start, end, domain.EventStatusPending)},
	})
	require.NoError(t, err)

	before := len(f.bus.published())

	_, err = f.engine.UpdateWithEvents(context.Background(), created.ID, Input{
		Title:          "Shared task",
		ParticipantIDs: []string{"user-a", "user-c"},
		Events: []EventDraft{
			{ID: created.EventIDs[0], Title: "Only event", Status: domain.EventStatusPending, Start: start, End: end},
		},
	})
	require.NoError(t, err)

	diffEvents := f.bus.published()[before:]
	require.Len(t, diffEvents, 2)

	var assignedTo, deallocatedFrom string
	for _, ev := range diffEvents {
		switch payload := ev.(type) {
		case domain.TaskAssigned:
			assignedTo = payload.AssignedTo
		case domain.TaskDeallocated:
			deallocatedFrom = payload.DeallocatedFrom
		default:
			t.Fatalf("unexpected event %T", ev)
		}
	}
	assert.Equal(t, "user-c", assignedTo)
	assert.Equal(t, "user-b", deallocatedFrom)
}

func TestEngine_UpdateWithEvents_RollsBackOnFailure(t *testing.T) {
	f := newFixture()
	start, end := window(t, 9)

	created, err := f.engine.CreateWithEvents(context.Background(), "owner-1", Input{
		Title:  "Stable task",
		Events: []EventDraft{draft("Original", start, end, domain.EventStatusPending)},
	})
	require.NoError(t, err)
	before := f.store.tasks[created.ID]

	f.store.failEventTitle = "New event"
	start2, end2 := window(t, 14)
	_, err = f.engine.UpdateWithEvents(context.Background(), created.ID, Input{
		Title: "Should not stick",
		Events: []EventDraft{
			{ID: created.EventIDs[0], Title: "Original", Status: domain.EventStatusPending, Start: start, End: end},
			draft("New event", start2, end2, domain.EventStatusPending),
		},
	})
	require.Error(t, err)

	after := f.store.tasks[created.ID]
	assert.Equal(t, before.Title, after.Title)
	assert.Len(t, f.store.events, 1)
}

func TestEngine_UpdateWithEvents_EmptyDraftsResetMetadata(t *testing.T) {
	f := newFixture()
	start, end := window(t, 9)

	created, err := f.engine.CreateWithEvents(context.Background(), "owner-1", Input{
		Title:  "Emptied task",
		Events: []EventDraft{draft("Only event", start, end, domain.EventStatusDone)},
	})
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusCompleted, created.Status)

	updated, err := f.engine.UpdateWithEvents(context.Background(), created.ID, Input{
		Title: "Emptied task",
	})
	require.NoError(t, err)

	assert.Empty(t, updated.EventIDs)
	assert.Empty(t, updated.BeginningDate)
	assert.Zero(t, updated.DurationHours)
	assert.Zero(t, updated.Progress)
	assert.Equal(t, domain.TaskStatusPending, updated.Status)
	assert.Empty(t, f.store.events)
}

func TestEngine_DeleteWithEvents(t *testing.T) {
	f := newFixture()
	start, end := window(t, 9)

	created, err := f.engine.CreateWithEvents(context.Background(), "owner-1", Input{
		Title:  "Doomed task",
		Events: []EventDraft{draft("Gone soon", start, end, domain.EventStatusPending)},
	})
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteWithEvents(context.Background(), created.ID))
	assert.Empty(t, f.store.tasks)
	assert.Empty(t, f.store.events)
}

func TestEngine_DeleteWithEvents_UnknownTask(t *testing.T) {
	f := newFixture()
	err := f.engine.DeleteWithEvents(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
