package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/planline/backend/domain"
	"github.com/planline/backend/internal/push"
	"github.com/planline/backend/repository"
)

// ReminderConfig controls the scan cadence and how far ahead of an event's
// start the reminder fires.
type ReminderConfig struct {
	Interval time.Duration
	Lead     time.Duration
}

// Reminder periodically scans for events starting within the lead window and
// notifies their collaborators and task owner. The per-event
// last_notification_sent mark is the only duplicate guard, so delivery is
// at-least-once when multiple instances run.
type Reminder struct {
	events        repository.EventRepository
	notifications repository.NotificationRepository
	gateway       push.Gateway
	logger        *zap.Logger
	cfg           ReminderConfig
	now           func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewReminder(
	events repository.EventRepository,
	notifications repository.NotificationRepository,
	gateway push.Gateway,
	logger *zap.Logger,
	cfg ReminderConfig,
) *Reminder {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Lead <= 0 {
		cfg.Lead = 10 * time.Minute
	}
	if gateway == nil {
		gateway = push.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reminder{
		events:        events,
		notifications: notifications,
		gateway:       gateway,
		logger:        logger,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Start launches the periodic scan. Calling Start on a running scheduler is
// a no-op.
func (r *Reminder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.logger.Debug("reminder scheduler already running")
		return
	}

	r.cron = cron.New(cron.WithSeconds())
	schedule := fmt.Sprintf("@every %ds", int(r.cfg.Interval.Seconds()))
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Interval)
		defer cancel()
		if err := r.Tick(ctx); err != nil {
			// a failed tick never stops the schedule
			r.logger.Error("reminder tick failed", zap.Error(err))
		}
	})
	r.cron.Start()
	r.running = true
	r.logger.Info("reminder scheduler started",
		zap.Duration("interval", r.cfg.Interval),
		zap.Duration("lead", r.cfg.Lead))
}

// Stop halts the scan, waiting for an in-flight tick. Stopping twice is a
// no-op.
func (r *Reminder) Stop(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.running = false
	r.logger.Info("reminder scheduler stopped")
}

// Tick runs one scan: select events starting inside [now, now+lead) that
// have not been flagged yet, notify every recipient, and mark each event
// notified once its reminders are persisted.
func (r *Reminder) Tick(ctx context.Context) error {
	now := r.now()
	upcoming, err := r.events.FindStartingBetween(ctx, now, now.Add(r.cfg.Lead))
	if err != nil {
		return err
	}
	if len(upcoming) == 0 {
		return nil
	}

	lead := int(r.cfg.Lead.Minutes())
	for _, ev := range upcoming {
		delivered := 0
		for _, userID := range recipients(ev) {
			notification := &domain.Notification{
				UserID:  userID,
				Type:    domain.NotificationTypeEvent,
				Title:   "Upcoming Event",
				Message: fmt.Sprintf("Event %q starts in %d minutes", ev.Title, lead),
				Data: domain.NotificationData{
					EventID:      ev.ID,
					EventTitle:   ev.Title,
					TaskID:       ev.TaskID,
					EventStart:   ev.Start.UTC().Format(time.RFC3339),
					MinutesUntil: lead,
				},
			}
			if _, err := r.notifications.Create(ctx, notification); err != nil {
				r.logger.Error("failed to persist reminder",
					zap.String("event_id", ev.ID),
					zap.String("user_id", userID),
					zap.Error(err))
				continue
			}
			delivered++
			if err := r.gateway.PushToUser(ctx, userID, notification); err != nil {
				r.logger.Debug("reminder push skipped",
					zap.String("user_id", userID), zap.Error(err))
			}
		}

		// Mark once per event, and only after its reminders were persisted:
		// a crash before the mark re-fires next tick (at-least-once), while
		// an event with zero delivered reminders stays eligible.
		if delivered == 0 {
			continue
		}
		if err := r.events.MarkNotified(ctx, ev.ID, now); err != nil {
			r.logger.Error("failed to mark event notified",
				zap.String("event_id", ev.ID), zap.Error(err))
		}
	}

	r.logger.Info("event reminders sent", zap.Int("events", len(upcoming)))
	return nil
}

// recipients returns the event's collaborators plus the owning task's
// creator, deduplicated.
func recipients(ev repository.ReminderEvent) []string {
	out := make([]string, 0, len(ev.CollaboratorIDs)+1)
	seen := make(map[string]struct{}, len(ev.CollaboratorIDs)+1)
	for _, id := range append(append([]string{}, ev.CollaboratorIDs...), ev.TaskCreatedBy) {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
