// internal/infrastructure/transport/event_bus/event_bus_test.go
package events

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"login-activity-monitor/internal/types"
)

func quietConfig() EventBusConfig {
	return EventBusConfig{
		BufferSize:    16,
		WorkerCount:   2,
		MaxRetries:    0,
		RetryDelay:    0,
		EnableMetrics: false,
		EnableLogging: false,
	}
}

func newRecordingSubscriber(name string, capacity int, eventTypes ...types.EventType) (*BaseSubscriber, chan types.Event) {
	received := make(chan types.Event, capacity)
	sub := NewBaseSubscriber(name, eventTypes, func(event types.Event) error {
		received <- event
		return nil
	})
	return sub, received
}

func collectEvents(t *testing.T, ch chan types.Event, n int) []types.Event {
	t.Helper()

	events := make([]types.Event, 0, n)
	timeout := time.After(2 * time.Second)
	for len(events) < n {
		select {
		case e := <-ch:
			events = append(events, e)
		case <-timeout:
			t.Fatalf("timed out waiting for events: got %d, want %d", len(events), n)
		}
	}
	return events
}

func TestEventBus_PublishSync_DeliversToSubscriber(t *testing.T) {
	bus := NewEventBus(quietConfig())
	sub, received := newRecordingSubscriber("recorder", 4, types.EventAlertStarted)
	bus.Subscribe(types.EventAlertStarted, sub)

	err := bus.PublishSync(types.Event{
		Type:   types.EventAlertStarted,
		Source: "pipeline",
		Data:   "payload",
	})
	require.NoError(t, err)

	events := collectEvents(t, received, 1)
	assert.Equal(t, types.EventAlertStarted, events[0].Type)
	assert.Equal(t, "payload", events[0].Data)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestEventBus_PublishSync_DeliversToAllSubscribers(t *testing.T) {
	bus := NewEventBus(quietConfig())
	first, firstReceived := newRecordingSubscriber("first", 4, types.EventAlertResolved)
	second, secondReceived := newRecordingSubscriber("second", 4, types.EventAlertResolved)
	bus.Subscribe(types.EventAlertResolved, first)
	bus.Subscribe(types.EventAlertResolved, second)

	require.NoError(t, bus.PublishSync(types.Event{
		Type:   types.EventAlertResolved,
		Source: "pipeline",
	}))

	collectEvents(t, firstReceived, 1)
	collectEvents(t, secondReceived, 1)
}

func TestEventBus_Publish_RequiresRunning(t *testing.T) {
	bus := NewEventBus(quietConfig())

	err := bus.Publish(types.Event{Type: types.EventAlertStarted, Source: "pipeline"})

	assert.Error(t, err)
}

func TestEventBus_Publish_AsyncDelivery(t *testing.T) {
	bus := NewEventBus(quietConfig())
	bus.Start()
	defer bus.Stop()

	sub, received := newRecordingSubscriber("recorder", 4, types.EventAnomalyDetected)
	bus.Subscribe(types.EventAnomalyDetected, sub)

	require.NoError(t, bus.Publish(types.Event{
		Type:   types.EventAnomalyDetected,
		Source: "pipeline",
	}))

	events := collectEvents(t, received, 1)
	assert.Equal(t, types.EventAnomalyDetected, events[0].Type)
}

func TestEventBus_Stop_DrainsBufferedEvents(t *testing.T) {
	bus := NewEventBus(quietConfig())
	bus.Start()

	sub, received := newRecordingSubscriber("recorder", 32, types.EventAnomalyDetected)
	bus.Subscribe(types.EventAnomalyDetected, sub)

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(types.Event{
			Type:   types.EventAnomalyDetected,
			Source: "pipeline",
		}))
	}

	bus.Stop()

	assert.Len(t, collectEvents(t, received, 10), 10)
	assert.False(t, bus.IsRunning())
}

func TestEventBus_Publish_FullBufferReturnsError(t *testing.T) {
	cfg := quietConfig()
	cfg.BufferSize = 1
	cfg.WorkerCount = 1
	bus := NewEventBus(cfg)
	bus.Start()

	started := make(chan struct{}, 8)
	gate := make(chan struct{})
	blocking := NewBaseSubscriber("blocker", []types.EventType{types.EventAlertStarted},
		func(event types.Event) error {
			started <- struct{}{}
			<-gate
			return nil
		})
	bus.Subscribe(types.EventAlertStarted, blocking)

	// Первый заполняет обработчик, второй - буфер, третий не помещается
	require.NoError(t, bus.Publish(types.Event{Type: types.EventAlertStarted, Source: "test"}))
	<-started
	require.NoError(t, bus.Publish(types.Event{Type: types.EventAlertStarted, Source: "test"}))

	err := bus.Publish(types.Event{Type: types.EventAlertStarted, Source: "test"})
	assert.Error(t, err)

	close(gate)
	bus.Stop()

	assert.Equal(t, int64(1), bus.GetMetrics().EventsDropped)
}

func TestEventBus_Subscribe_RejectsUndeclaredEventType(t *testing.T) {
	bus := NewEventBus(quietConfig())
	sub, _ := newRecordingSubscriber("recorder", 4, types.EventAlertStarted)

	bus.Subscribe(types.EventAlertResolved, sub)

	assert.Equal(t, 0, bus.GetSubscriberCount(types.EventAlertResolved))
}

func TestEventBus_Unsubscribe_RemovesSubscriber(t *testing.T) {
	bus := NewEventBus(quietConfig())
	sub, received := newRecordingSubscriber("recorder", 4, types.EventAlertStarted)
	bus.Subscribe(types.EventAlertStarted, sub)
	require.Equal(t, 1, bus.GetSubscriberCount(types.EventAlertStarted))

	bus.Unsubscribe(types.EventAlertStarted, sub)

	assert.Equal(t, 0, bus.GetSubscriberCount(types.EventAlertStarted))
	require.NoError(t, bus.PublishSync(types.Event{Type: types.EventAlertStarted, Source: "test"}))
	assert.Empty(t, received)
}

func TestEventBus_RetriesFailedSubscriber(t *testing.T) {
	cfg := quietConfig()
	cfg.MaxRetries = 2
	bus := NewEventBus(cfg)

	calls := 0
	flaky := NewBaseSubscriber("flaky", []types.EventType{types.EventAlertStarted},
		func(event types.Event) error {
			calls++
			if calls < 3 {
				return fmt.Errorf("transient failure %d", calls)
			}
			return nil
		})
	bus.Subscribe(types.EventAlertStarted, flaky)

	err := bus.PublishSync(types.Event{Type: types.EventAlertStarted, Source: "test"})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, int64(0), bus.GetMetrics().EventsFailed)
}

func TestEventBus_GivesUpAfterRetries(t *testing.T) {
	cfg := quietConfig()
	cfg.MaxRetries = 1
	bus := NewEventBus(cfg)

	broken := NewBaseSubscriber("broken", []types.EventType{types.EventAlertStarted},
		func(event types.Event) error {
			return fmt.Errorf("permanent failure")
		})
	bus.Subscribe(types.EventAlertStarted, broken)

	err := bus.PublishSync(types.Event{Type: types.EventAlertStarted, Source: "test"})

	assert.Error(t, err)
	assert.Equal(t, int64(1), bus.GetMetrics().EventsFailed)
}

func TestEventBus_RecoversFromSubscriberPanic(t *testing.T) {
	bus := NewEventBus(quietConfig())

	panicking := NewBaseSubscriber("panicking", []types.EventType{types.EventAlertStarted},
		func(event types.Event) error {
			panic("subscriber exploded")
		})
	bus.Subscribe(types.EventAlertStarted, panicking)

	err := bus.PublishSync(types.Event{Type: types.EventAlertStarted, Source: "test"})

	assert.Error(t, err)
	assert.Equal(t, int64(1), bus.GetMetrics().EventsFailed)
}

func TestEventBus_ValidationMiddleware_RejectsIncompleteEvents(t *testing.T) {
	bus := NewEventBus(quietConfig())
	bus.AddMiddleware(&ValidationMiddleware{})

	sub, received := newRecordingSubscriber("recorder", 4, types.EventAlertStarted)
	bus.Subscribe(types.EventAlertStarted, sub)

	// Источник не указан
	err := bus.PublishSync(types.Event{Type: types.EventAlertStarted})

	assert.Error(t, err)
	assert.Empty(t, received)
}

func TestEventBus_GetMetrics_CountsTraffic(t *testing.T) {
	bus := NewEventBus(quietConfig())
	sub, _ := newRecordingSubscriber("recorder", 8, types.EventAlertStarted)
	bus.Subscribe(types.EventAlertStarted, sub)

	require.NoError(t, bus.PublishSync(types.Event{Type: types.EventAlertStarted, Source: "test"}))
	require.NoError(t, bus.PublishSync(types.Event{Type: types.EventAlertStarted, Source: "test"}))

	metrics := bus.GetMetrics()
	assert.Equal(t, int64(2), metrics.EventsPublished)
	assert.Equal(t, int64(2), metrics.EventsProcessed)
	assert.Equal(t, 1, metrics.SubscribersCount[types.EventAlertStarted])
}

func TestEventBus_GetEventTypes_SortedTypes(t *testing.T) {
	bus := NewEventBus(quietConfig())
	sub, _ := newRecordingSubscriber("recorder", 4,
		types.EventAlertStarted, types.EventAlertResolved, types.EventAnomalyDetected)
	bus.Subscribe(types.EventAnomalyDetected, sub)
	bus.Subscribe(types.EventAlertStarted, sub)
	bus.Subscribe(types.EventAlertResolved, sub)

	eventTypes := bus.GetEventTypes()

	assert.Equal(t, []types.EventType{
		types.EventAlertResolved,
		types.EventAlertStarted,
		types.EventAnomalyDetected,
	}, eventTypes)
}
