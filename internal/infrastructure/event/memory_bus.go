package event

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/intellipost/backend/internal/domain/shared"
)

// wildcard subscribes a handler to every event type
const wildcard = "*"

// ErrStopped is returned by Publish after the bus has been stopped
var ErrStopped = errors.New("event bus stopped")

// MemoryEventBus dispatches domain events to in-process subscribers.
// Publish enqueues; a single dispatcher goroutine delivers events in
// order so handlers never race each other for the same aggregate.
type MemoryEventBus struct {
	mu        sync.RWMutex
	handlers  map[string][]shared.EventHandler
	queue     chan shared.DomainEvent
	stop      chan struct{}
	done      chan struct{}
	runCtx    context.Context
	runCancel context.CancelFunc
	logger    *zap.Logger
	started   bool
	stopped   bool
}

// NewMemoryEventBus creates a MemoryEventBus
func NewMemoryEventBus(logger *zap.Logger) *MemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	runCtx, runCancel := context.WithCancel(context.Background())
	return &MemoryEventBus{
		handlers:  make(map[string][]shared.EventHandler),
		queue:     make(chan shared.DomainEvent, 256),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		runCtx:    runCtx,
		runCancel: runCancel,
		logger:    logger,
	}
}

var _ shared.EventBus = (*MemoryEventBus)(nil)

// Subscribe registers a handler for the given event types
func (b *MemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	if len(eventTypes) == 0 {
		eventTypes = []string{wildcard}
	}
	for _, t := range eventTypes {
		b.handlers[t] = append(b.handlers[t], handler)
	}
}

// Unsubscribe removes a handler from every event type
func (b *MemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for t, hs := range b.handlers {
		filtered := hs[:0]
		for _, h := range hs {
			if h != handler {
				filtered = append(filtered, h)
			}
		}
		b.handlers[t] = filtered
	}
}

// Publish enqueues events for asynchronous delivery. After Stop it
// returns ErrStopped instead of blocking or panicking.
func (b *MemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		select {
		case <-b.stop:
			return ErrStopped
		default:
		}
		select {
		case b.queue <- e:
		case <-b.stop:
			return ErrStopped
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Start launches the dispatcher goroutine
func (b *MemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = true
	b.mu.Unlock()

	go b.dispatch()
	return nil
}

// Stop signals the dispatcher, waits for it to drain the queue and
// then cancels the delivery context. Safe to call more than once.
func (b *MemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.stopped {
		b.stopped = true
		close(b.stop)
	}
	started := b.started
	b.mu.Unlock()

	if !started {
		b.runCancel()
		return nil
	}

	select {
	case <-b.done:
		b.runCancel()
		return nil
	case <-ctx.Done():
		// give up on in-flight handlers so the dispatcher can exit
		b.runCancel()
		return ctx.Err()
	}
}

func (b *MemoryEventBus) dispatch() {
	defer close(b.done)
	for {
		select {
		case e := <-b.queue:
			b.deliver(e)
		case <-b.stop:
			for {
				select {
				case e := <-b.queue:
					b.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (b *MemoryEventBus) deliver(e shared.DomainEvent) {
	b.mu.RLock()
	handlers := append([]shared.EventHandler{}, b.handlers[e.EventType()]...)
	handlers = append(handlers, b.handlers[wildcard]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(b.runCtx, e); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", e.EventType()),
				zap.String("aggregate_id", e.AggregateID().String()),
				zap.Error(err),
			)
		}
	}
}
