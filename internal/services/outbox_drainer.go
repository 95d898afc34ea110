package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/planline/backend/domain"
	"github.com/planline/backend/internal/infrastructure/outbox"
	"github.com/planline/backend/repository"
	"github.com/planline/backend/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// DrainerConfig controls how frequently the outbox is drained.
type DrainerConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxDrainer redelivers deferred notifications to the primary store once
// it is reachable again.
type OutboxDrainer struct {
	store         *outbox.Store
	monitor       ConnectionHealth
	notifications repository.NotificationRepository
	logger        *zap.Logger
	cron          *cron.Cron
	cfg           DrainerConfig
}

func NewOutboxDrainer(
	store *outbox.Store,
	monitor ConnectionHealth,
	notifications repository.NotificationRepository,
	logger *zap.Logger,
	cfg DrainerConfig,
) *OutboxDrainer {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &OutboxDrainer{
		store:         store,
		monitor:       monitor,
		notifications: notifications,
		logger:        logger,
		cfg:           cfg,
		cron:          cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = d.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := d.Drain(ctx); err != nil {
			d.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return d
}

// Start launches the drain schedule.
func (d *OutboxDrainer) Start() {
	if d == nil || d.cron == nil {
		return
	}
	d.cron.Start()
	d.logger.Info("outbox drainer started")
}

// Stop gracefully stops the schedule.
func (d *OutboxDrainer) Stop(ctx context.Context) {
	if d == nil || d.cron == nil {
		return
	}
	stopCtx := d.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	d.logger.Info("outbox drainer stopped")
}

// Defer parks a notification in the outbox for later redelivery.
func (d *OutboxDrainer) Defer(ctx context.Context, notification *domain.Notification) error {
	if d == nil || d.store == nil {
		return fmt.Errorf("outbox not configured")
	}
	if notification == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return d.store.Enqueue(outbox.Item{
		UserID:       notification.UserID,
		Notification: payload,
	})
}

// Drain redelivers pending items synchronously.
func (d *OutboxDrainer) Drain(ctx context.Context) error {
	if d == nil || d.store == nil {
		return nil
	}
	if d.monitor != nil && !d.monitor.IsOnline() {
		d.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	items, err := d.store.GetBatch(d.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := d.redeliver(ctx, item); err != nil {
			d.logger.Error("failed to redeliver notification",
				zap.String("item_id", item.ID),
				zap.String("user_id", item.UserID),
				zap.Error(err))

			item.Retries++
			if item.Retries >= d.cfg.MaxRetries {
				d.logger.Warn("dropping outbox item (max retries reached)", zap.String("item_id", item.ID))
				_ = d.store.Remove(item)
				continue
			}

			if err := d.store.Remove(item); err != nil {
				d.logger.Warn("failed to remove outbox item", zap.Error(err))
			}
			if err := d.store.Requeue(item); err != nil {
				d.logger.Error("failed to requeue outbox item", zap.Error(err))
			}
			continue
		}

		if err := d.store.Remove(item); err != nil {
			d.logger.Warn("failed to purge redelivered item", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of pending items.
func (d *OutboxDrainer) Size() int {
	if d == nil || d.store == nil {
		return 0
	}
	size, err := d.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (d *OutboxDrainer) redeliver(ctx context.Context, item outbox.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var notification domain.Notification
	if err := json.Unmarshal(item.Notification, &notification); err != nil {
		return err
	}
	_, err := d.notifications.Create(ctx, &notification)
	return err
}

var _ usecase.NotificationOutbox = (*OutboxDrainer)(nil)
