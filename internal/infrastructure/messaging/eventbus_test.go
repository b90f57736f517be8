package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

type countingHandler struct {
	mu    sync.Mutex
	seen  []shared.EventType
	fail  bool
	name  string
}

func (h *countingHandler) Handle(ctx context.Context, event shared.Event) error {
	h.mu.Lock()
	h.seen = append(h.seen, event.EventType())
	h.mu.Unlock()
	if h.fail {
		return errors.New("handler failure")
	}
	return nil
}

func (h *countingHandler) Name() string { return h.name }

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func syncBus() *EventBus {
	cfg := DefaultEventBusConfig()
	cfg.AsyncMode = false
	return NewEventBus(cfg)
}

func TestPublishRoutesByType(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	reports := &countingHandler{name: "reports"}
	exports := &countingHandler{name: "exports"}
	require.NoError(t, bus.Subscribe(shared.EventReportExecutionCompleted, reports))
	require.NoError(t, bus.Subscribe(shared.EventExportCompleted, exports))

	evt := shared.ReportExecutionCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventReportExecutionCompleted, "exec-1"),
	}
	require.NoError(t, bus.Publish(context.Background(), evt))

	assert.Equal(t, 1, reports.count())
	assert.Zero(t, exports.count())
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	typed := &countingHandler{name: "typed"}
	all := &countingHandler{name: "all"}
	require.NoError(t, bus.Subscribe(shared.EventExportCompleted, typed))
	require.NoError(t, bus.SubscribeAll(all))

	evt := shared.ExportCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventExportCompleted, "export-1"),
	}
	require.NoError(t, bus.Publish(context.Background(), evt))

	assert.Equal(t, 1, typed.count())
	assert.Equal(t, 1, all.count())
}

func TestHandlerErrorsDoNotPropagate(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	broken := &countingHandler{name: "broken", fail: true}
	healthy := &countingHandler{name: "healthy"}
	require.NoError(t, bus.Subscribe(shared.EventExportCompleted, broken))
	require.NoError(t, bus.Subscribe(shared.EventExportCompleted, healthy))

	evt := shared.ExportCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventExportCompleted, "export-1"),
	}
	assert.NoError(t, bus.Publish(context.Background(), evt))
	assert.Equal(t, 1, healthy.count())
}

func TestPublishWithoutHandlers(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	evt := shared.ExportCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventExportCompleted, "export-1"),
	}
	assert.NoError(t, bus.Publish(context.Background(), evt))
}

func TestClosedBusRejectsUse(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	evt := shared.ExportCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventExportCompleted, "export-1"),
	}
	assert.ErrorIs(t, bus.Publish(context.Background(), evt), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventExportCompleted, &countingHandler{name: "late"}), ErrEventBusClosed)
	assert.NoError(t, bus.Close(), "closing twice is a no-op")
}

func TestSubscribeNilHandler(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	assert.Error(t, bus.Subscribe(shared.EventExportCompleted, nil))
}
