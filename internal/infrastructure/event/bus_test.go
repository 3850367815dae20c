package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// testEvent implements DomainEvent for testing
type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Order", uuid.New()),
		Data:            "test data",
	}
}

// testHandler implements EventHandler for testing
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("OrderPlaced")
	bus.Subscribe(handler)

	event := newTestEvent("OrderPlaced")
	require.NoError(t, bus.Publish(context.Background(), event))
	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_Publish_MultipleEventsAndHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler1 := newTestHandler("OrderPlaced")
	handler2 := newTestHandler("OrderPlaced")
	bus.Subscribe(handler1)
	bus.Subscribe(handler2)

	err := bus.Publish(context.Background(), newTestEvent("OrderPlaced"), newTestEvent("OrderPlaced"))
	require.NoError(t, err)
	assert.Len(t, handler1.getHandled(), 2)
	assert.Len(t, handler2.getHandled(), 2)
}

func TestInMemoryEventBus_Publish_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	wildcard := newTestHandler()
	bus.Subscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("ProductDeleted")))
	assert.Len(t, wildcard.getHandled(), 1)
}

func TestInMemoryEventBus_Publish_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("OrderPlaced")
	bus.Subscribe(handler, "OrderCancelled")

	_ = bus.Publish(context.Background(), newTestEvent("OrderPlaced"))
	assert.Empty(t, handler.getHandled())
	_ = bus.Publish(context.Background(), newTestEvent("OrderCancelled"))
	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_Publish_HandlerErrorIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler("OrderPlaced")
	failing.err = errors.New("handler error")
	next := newTestHandler("OrderPlaced")
	bus.Subscribe(failing)
	bus.Subscribe(next)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))
	assert.Len(t, failing.getHandled(), 1)
	assert.Len(t, next.getHandled(), 1)
	assert.Equal(t, 1, logs.FilterMessage("handler failed to process event").Len())
}

func TestInMemoryEventBus_Publish_HandlerPanicIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	panicking := newTestHandler("ProductDeleted")
	panicking.panicWith = "boom"
	next := newTestHandler("ProductDeleted")
	bus.Subscribe(panicking)
	bus.Subscribe(next)

	assert.NotPanics(t, func() {
		require.NoError(t, bus.Publish(context.Background(), newTestEvent("ProductDeleted")))
	})
	assert.Len(t, next.getHandled(), 1)

	entries := logs.FilterMessage("handler failed to process event").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "handler panicked: boom")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("OrderPlaced")
	bus.Subscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("OrderPlaced"))
	assert.Len(t, handler.getHandled(), 1)

	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("OrderPlaced"))
	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_Async(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewInMemoryEventBus(zap.NewNop(), WithAsync(3, 16))
	var count atomic.Int32
	bus.Subscribe(handlerFunc(func(ctx context.Context, e shared.DomainEvent) error {
		count.Add(1)
		return nil
	}, "SampleRequestSubmitted"))

	require.NoError(t, bus.Start(context.Background()))
	for i := 0; i < 50; i++ {
		require.NoError(t, bus.Publish(context.Background(), newTestEvent("SampleRequestSubmitted")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
	// Stop drains the queue
	assert.Equal(t, int32(50), count.Load())
}

func TestInMemoryEventBus_AsyncDetachesRequestContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewInMemoryEventBus(zap.NewNop(), WithAsync(1, 1))
	got := make(chan error, 1)
	bus.Subscribe(handlerFunc(func(ctx context.Context, e shared.DomainEvent) error {
		got <- ctx.Err()
		return nil
	}, "OrderPlaced"))
	require.NoError(t, bus.Start(context.Background()))

	reqCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(reqCtx, newTestEvent("OrderPlaced")))
	cancel()

	select {
	case err := <-got:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}
	require.NoError(t, bus.Stop(context.Background()))
}

func TestInMemoryEventBus_AsyncPublishAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewInMemoryEventBus(zap.NewNop(), WithAsync(2, 4))
	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Stop(context.Background()))

	err := bus.Publish(context.Background(), newTestEvent("OrderPlaced"))
	assert.ErrorIs(t, err, ErrBusStopped)
	// stopping twice is harmless
	assert.NoError(t, bus.Stop(context.Background()))
}

func TestInMemoryEventBus_SyncStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))

	handler := newTestHandler("OrderPlaced")
	bus.Subscribe(handler)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))
	assert.Len(t, handler.getHandled(), 1)

	require.NoError(t, bus.Stop(context.Background()))
}

type funcHandler struct {
	fn    func(context.Context, shared.DomainEvent) error
	types []string
}

func handlerFunc(fn func(context.Context, shared.DomainEvent) error, types ...string) *funcHandler {
	return &funcHandler{fn: fn, types: types}
}

func (h *funcHandler) Handle(ctx context.Context, e shared.DomainEvent) error { return h.fn(ctx, e) }
func (h *funcHandler) EventTypes() []string                                  { return h.types }
