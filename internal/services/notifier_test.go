package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planline/backend/domain"
	"github.com/planline/backend/internal/bus"
	"github.com/planline/backend/repository"
)

type memNotificationRepo struct {
	mu      sync.Mutex
	created []domain.Notification
	// invitationID -> status written via UpdateInvitationStatus
	statusUpdates map[string]domain.InvitationStatus
	failCreate    bool
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{statusUpdates: make(map[string]domain.InvitationStatus)}
}

func (r *memNotificationRepo) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return nil, errors.New("store unavailable")
	}
	r.created = append(r.created, *n)
	return n, nil
}

func (r *memNotificationRepo) List(ctx context.Context, filter repository.NotificationFilter) ([]domain.Notification, error) {
	return nil, nil
}

func (r *memNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

func (r *memNotificationRepo) MarkRead(ctx context.Context, id, userID string) error { return nil }

func (r *memNotificationRepo) MarkAllRead(ctx context.Context, userID string) error { return nil }

func (r *memNotificationRepo) UpdateInvitationStatus(ctx context.Context, invitationID string, status domain.InvitationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusUpdates[invitationID] = status
	return nil
}

func (r *memNotificationRepo) Delete(ctx context.Context, id, userID string) error { return nil }

func (r *memNotificationRepo) all() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.created...)
}

type memUserRepo struct {
	users map[string]domain.User
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) Upsert(ctx context.Context, user *domain.User) error { return nil }

type recordingGateway struct {
	mu     sync.Mutex
	pushes map[string]int
}

func (g *recordingGateway) PushToUser(ctx context.Context, userID string, n *domain.Notification) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pushes == nil {
		g.pushes = make(map[string]int)
	}
	g.pushes[userID]++
	return nil
}

type recordingOutbox struct {
	mu       sync.Mutex
	deferred []domain.Notification
}

func (o *recordingOutbox) Defer(ctx context.Context, n *domain.Notification) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deferred = append(o.deferred, *n)
	return nil
}

func knownUsers() *memUserRepo {
	return &memUserRepo{users: map[string]domain.User{
		"user-a":  {ID: "user-a", Email: "a@example.com", FirstName: "Ada", LastName: "Lovelace"},
		"user-b":  {ID: "user-b", Email: "b@example.com", FirstName: "Blaise", LastName: "Pascal"},
		"owner-1": {ID: "owner-1", Email: "owner@example.com", FirstName: "Olive", LastName: "Owner"},
	}}
}

func TestNotifier_TaskAssigned(t *testing.T) {
	notifications := newMemNotificationRepo()
	gateway := &recordingGateway{}
	n := NewNotifier(notifications, knownUsers(), gateway, nil, nil)

	err := n.Handle(context.Background(), domain.TaskAssigned{
		TaskID:     "task-1",
		TaskTitle:  "Ship the release",
		AssignedTo: "user-a",
		AssignedBy: "owner-1",
		Timestamp:  time.Now(),
	})
	require.NoError(t, err)

	created := notifications.all()
	require.Len(t, created, 1)
	got := created[0]
	assert.Equal(t, "user-a", got.UserID)
	assert.Equal(t, domain.NotificationTypeTask, got.Type)
	assert.Equal(t, "New Task Assigned", got.Title)
	assert.Equal(t, "You have been assigned to the task: Ship the release", got.Message)
	assert.Equal(t, "task-1", got.Data.TaskID)
	assert.Equal(t, "owner-1", got.Data.ActorID)
	assert.Equal(t, 1, gateway.pushes["user-a"])
}

func TestNotifier_TaskDeallocated(t *testing.T) {
	notifications := newMemNotificationRepo()
	n := NewNotifier(notifications, knownUsers(), nil, nil, nil)

	err := n.Handle(context.Background(), domain.TaskDeallocated{
		TaskID:          "task-1",
		TaskTitle:       "Ship the release",
		DeallocatedFrom: "user-b",
		DeallocatedBy:   "owner-1",
	})
	require.NoError(t, err)

	created := notifications.all()
	require.Len(t, created, 1)
	assert.Equal(t, "Task Deallocated", created[0].Title)
	assert.Equal(t, "You have been deallocated from the task: Ship the release", created[0].Message)
}

func TestNotifier_EventAssignedAndDeallocated(t *testing.T) {
	notifications := newMemNotificationRepo()
	n := NewNotifier(notifications, knownUsers(), nil, nil, nil)

	require.NoError(t, n.Handle(context.Background(), domain.EventAssigned{
		EventID:        "ev-1",
		EventTitle:     "Kickoff",
		CollaboratorID: "user-a",
		AssignedBy:     "owner-1",
	}))
	require.NoError(t, n.Handle(context.Background(), domain.EventDeallocated{
		EventID:        "ev-1",
		EventTitle:     "Kickoff",
		CollaboratorID: "user-a",
		DeallocatedBy:  "owner-1",
	}))

	created := notifications.all()
	require.Len(t, created, 2)
	assert.Equal(t, "New Event Assigned", created[0].Title)
	assert.Equal(t, "You have been assigned to the event: Kickoff", created[0].Message)
	assert.Equal(t, "Event Deallocated", created[1].Title)
}

func TestNotifier_MissingRecipientIsSkippedNotFailed(t *testing.T) {
	notifications := newMemNotificationRepo()
	n := NewNotifier(notifications, knownUsers(), nil, nil, nil)

	err := n.Handle(context.Background(), domain.TaskAssigned{
		TaskID:     "task-1",
		TaskTitle:  "Orphaned",
		AssignedTo: "ghost",
	})
	require.NoError(t, err)
	assert.Empty(t, notifications.all())
}

func TestNotifier_InvitationSent(t *testing.T) {
	notifications := newMemNotificationRepo()
	n := NewNotifier(notifications, knownUsers(), nil, nil, nil)

	t.Run("registered recipient", func(t *testing.T) {
		err := n.Handle(context.Background(), domain.InvitationSent{
			InvitationID: "inv-1",
			FromUserID:   "owner-1",
			ToUserID:     "user-a",
			Email:        "a@example.com",
		})
		require.NoError(t, err)

		created := notifications.all()
		require.Len(t, created, 1)
		got := created[0]
		assert.Equal(t, "user-a", got.UserID)
		assert.Equal(t, domain.NotificationTypeInvitation, got.Type)
		assert.Equal(t, "New Contact Invitation", got.Title)
		assert.Equal(t, "Olive Owner sent you a contact invitation", got.Message)
		assert.Equal(t, "inv-1", got.Data.InvitationID)
		assert.Equal(t, string(domain.InvitationStatusPending), got.Data.InvitationStatus)
		assert.Equal(t, "/invitations/inv-1", got.Data.ActionURL)
	})

	t.Run("unregistered email gets no in-app notification", func(t *testing.T) {
		before := len(notifications.all())
		err := n.Handle(context.Background(), domain.InvitationSent{
			InvitationID: "inv-2",
			FromUserID:   "owner-1",
			Email:        "stranger@example.com",
		})
		require.NoError(t, err)
		assert.Len(t, notifications.all(), before)
	})
}

func TestNotifier_InvitationAccepted(t *testing.T) {
	notifications := newMemNotificationRepo()
	n := NewNotifier(notifications, knownUsers(), nil, nil, nil)

	err := n.Handle(context.Background(), domain.InvitationAccepted{
		InvitationID: "inv-1",
		FromUserID:   "owner-1",
		ToUserID:     "user-a",
	})
	require.NoError(t, err)

	// Original invitation notification flips to accepted instead of
	// duplicating.
	assert.Equal(t, domain.InvitationStatusAccepted, notifications.statusUpdates["inv-1"])

	created := notifications.all()
	require.Len(t, created, 1)
	got := created[0]
	assert.Equal(t, "owner-1", got.UserID)
	assert.Equal(t, "Invitation Accepted", got.Title)
	assert.Equal(t, "Ada Lovelace accepted your contact invitation", got.Message)
}

func TestNotifier_InvitationRejected(t *testing.T) {
	notifications := newMemNotificationRepo()
	n := NewNotifier(notifications, knownUsers(), nil, nil, nil)

	err := n.Handle(context.Background(), domain.InvitationRejected{
		InvitationID: "inv-1",
		FromUserID:   "owner-1",
		ToUserID:     "user-a",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.InvitationStatusRejected, notifications.statusUpdates["inv-1"])

	created := notifications.all()
	require.Len(t, created, 1)
	assert.Equal(t, "Invitation Declined", created[0].Title)
	assert.Equal(t, "Ada Lovelace declined your contact invitation", created[0].Message)
}

func TestNotifier_StoreFailureDefersToOutbox(t *testing.T) {
	notifications := newMemNotificationRepo()
	notifications.failCreate = true
	outbox := &recordingOutbox{}
	n := NewNotifier(notifications, knownUsers(), nil, outbox, nil)

	err := n.Handle(context.Background(), domain.TaskAssigned{
		TaskID:     "task-1",
		TaskTitle:  "Deferred",
		AssignedTo: "user-a",
	})
	require.NoError(t, err)

	require.Len(t, outbox.deferred, 1)
	assert.Equal(t, "user-a", outbox.deferred[0].UserID)
}

func TestNotifier_RegisterSubscribesAllKinds(t *testing.T) {
	notifications := newMemNotificationRepo()
	n := NewNotifier(notifications, knownUsers(), nil, nil, nil)

	b := bus.New(nil)
	n.Register(b)
	defer n.Close()

	b.Publish(context.Background(), domain.TaskAssigned{
		TaskID: "task-1", TaskTitle: "Via bus", AssignedTo: "user-a",
	})
	b.Publish(context.Background(), domain.EventAssigned{
		EventID: "ev-1", EventTitle: "Via bus", CollaboratorID: "user-b",
	})

	assert.Len(t, notifications.all(), 2)
}

func TestNotifier_CloseUnsubscribes(t *testing.T) {
	notifications := newMemNotificationRepo()
	n := NewNotifier(notifications, knownUsers(), nil, nil, nil)

	b := bus.New(nil)
	n.Register(b)
	n.Close()

	b.Publish(context.Background(), domain.TaskAssigned{
		TaskID: "task-1", TaskTitle: "After close", AssignedTo: "user-a",
	})
	assert.Empty(t, notifications.all())
}
