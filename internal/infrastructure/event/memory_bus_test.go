package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellipost/backend/internal/domain/shared"
)

type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	events []shared.DomainEvent
}

func (h *recordingHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
	return nil
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func (h *recordingHandler) received() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent{}, h.events...)
}

func testEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "test", uuid.New(), uuid.New())
	return &e
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewMemoryEventBus(nil)
	require.NoError(t, bus.Start(context.Background()))

	handler := &recordingHandler{types: []string{"product.ready"}}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), testEvent("product.ready")))
	require.NoError(t, bus.Publish(context.Background(), testEvent("product.failed")))

	waitFor(t, func() bool { return len(handler.received()) == 1 })
	assert.Equal(t, "product.ready", handler.received()[0].EventType())

	require.NoError(t, bus.Stop(context.Background()))
}

func TestWildcardHandlerReceivesAll(t *testing.T) {
	bus := NewMemoryEventBus(nil)
	require.NoError(t, bus.Start(context.Background()))

	handler := &recordingHandler{}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(),
		testEvent("a"), testEvent("b"), testEvent("c")))

	waitFor(t, func() bool { return len(handler.received()) == 3 })
	require.NoError(t, bus.Stop(context.Background()))
}

func TestUnsubscribe(t *testing.T) {
	bus := NewMemoryEventBus(nil)
	require.NoError(t, bus.Start(context.Background()))

	handler := &recordingHandler{types: []string{"a"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), testEvent("a")))
	require.NoError(t, bus.Stop(context.Background()))

	assert.Empty(t, handler.received())
}

func TestStopDrainsQueue(t *testing.T) {
	bus := NewMemoryEventBus(nil)
	require.NoError(t, bus.Start(context.Background()))

	handler := &recordingHandler{}
	bus.Subscribe(handler)

	for i := 0; i < 50; i++ {
		require.NoError(t, bus.Publish(context.Background(), testEvent("x")))
	}
	require.NoError(t, bus.Stop(context.Background()))
	assert.Len(t, handler.received(), 50)
}

func TestPublishAfterStopReturnsError(t *testing.T) {
	bus := NewMemoryEventBus(nil)
	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Stop(context.Background()))

	err := bus.Publish(context.Background(), testEvent("x"))
	assert.ErrorIs(t, err, ErrStopped)
}

func TestStopTwice(t *testing.T) {
	bus := NewMemoryEventBus(nil)
	require.NoError(t, bus.Start(context.Background()))

	require.NoError(t, bus.Stop(context.Background()))
	require.NoError(t, bus.Stop(context.Background()))
}

func TestStopWithoutStart(t *testing.T) {
	bus := NewMemoryEventBus(nil)
	require.NoError(t, bus.Stop(context.Background()))

	err := bus.Publish(context.Background(), testEvent("x"))
	assert.ErrorIs(t, err, ErrStopped)
}
