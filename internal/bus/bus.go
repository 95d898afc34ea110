// Package bus provides the in-process publish/subscribe registry that
// decouples domain mutations from notification delivery.
package bus

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/planline/backend/domain"
)

// Handler consumes a published domain event. Handlers for the same kind run
// concurrently and must be independent of each other.
type Handler func(ctx context.Context, event domain.BusEvent) error

type subscription struct {
	id      uint64
	handler Handler
}

// Bus maps event kinds to subscriber handlers. Registration is expected at
// startup; Publish may be called from any goroutine afterwards.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[domain.BusEventKind][]subscription
	logger *zap.Logger
}

// New creates an empty bus.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[domain.BusEventKind][]subscription),
		logger: logger,
	}
}

// Subscribe registers a handler for the given kind and returns a function
// that removes it again (used during shutdown and test teardown).
func (b *Bus) Subscribe(kind domain.BusEventKind, handler Handler) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[kind]
		for i, sub := range subs {
			if sub.id == id {
				b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Clear drops every handler registered for the kind.
func (b *Bus) Clear(kind domain.BusEventKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, kind)
}

// Publish fans the event out to every handler registered for its kind,
// running them concurrently, and returns once all have finished. A failing
// or panicking handler is logged and never prevents its siblings from
// running; publishers cannot observe subscriber errors.
func (b *Bus) Publish(ctx context.Context, event domain.BusEvent) {
	if event == nil {
		return
	}
	kind := event.Kind()

	b.mu.RLock()
	subs := make([]subscription, len(b.subs[kind]))
	copy(subs, b.subs[kind])
	b.mu.RUnlock()

	if len(subs) == 0 {
		b.logger.Debug("no subscribers for event", zap.String("kind", string(kind)))
		return
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub subscription) {
			defer wg.Done()
			if err := b.invoke(ctx, sub.handler, event); err != nil {
				b.logger.Error("event handler failed",
					zap.String("kind", string(kind)),
					zap.Error(err))
			}
		}(sub)
	}
	wg.Wait()
}

func (b *Bus) invoke(ctx context.Context, handler Handler, event domain.BusEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, event)
}
