// internal/infrastructure/persistence/recorder/alert_recorder.go
package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"login-activity-monitor/internal/types"
	"login-activity-monitor/pkg/logger"
)

// writeTimeout ограничивает одну запись события в хранилище
const writeTimeout = 5 * time.Second

// EventStore - долговременное хранилище событий алертов
type EventStore interface {
	SaveEvent(ctx context.Context, event types.AlertEvent) (string, error)
}

// TimelineStore - хронология событий алертов
type TimelineStore interface {
	RecordEvent(ctx context.Context, event types.AlertEvent) error
}

// AlertRecorder - подписчик шины, сохраняющий события алертов в
// подключенные хранилища. Отказ хранилища не прерывает доставку
// уведомлений: ошибки записи только логируются.
type AlertRecorder struct {
	store    EventStore    // nil, когда Postgres выключен
	timeline TimelineStore // nil, когда Redis выключен

	mu     sync.Mutex
	saved  int
	errors int
}

// NewAlertRecorder создает подписчика записи событий.
// Оба хранилища опциональны.
func NewAlertRecorder(store EventStore, timeline TimelineStore) *AlertRecorder {
	return &AlertRecorder{
		store:    store,
		timeline: timeline,
	}
}

// HandleEvent сохраняет событие алерта в подключенные хранилища
func (r *AlertRecorder) HandleEvent(event types.Event) error {
	alertEvent, ok := event.Data.(types.AlertEvent)
	if !ok {
		return fmt.Errorf("unexpected alert event payload %T", event.Data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	saved := 0
	failed := 0

	if r.store != nil {
		if _, err := r.store.SaveEvent(ctx, alertEvent); err != nil {
			failed++
			logger.Error("❌ [Recorder] Событие %s не сохранено в базу: %v", alertEvent.Kind, err)
		} else {
			saved++
		}
	}

	if r.timeline != nil {
		if err := r.timeline.RecordEvent(ctx, alertEvent); err != nil {
			failed++
			logger.Warn("⚠️ [Recorder] Событие %s не записано в хронологию: %v", alertEvent.Kind, err)
		} else {
			saved++
		}
	}

	r.mu.Lock()
	r.saved += saved
	r.errors += failed
	r.mu.Unlock()

	return nil
}

// GetName возвращает имя подписчика
func (r *AlertRecorder) GetName() string {
	return "alert_recorder"
}

// GetSubscribedEvents возвращает типы событий подписчика
func (r *AlertRecorder) GetSubscribedEvents() []types.EventType {
	return []types.EventType{
		types.EventAlertStarted,
		types.EventAlertResolved,
		types.EventAlertStillActive,
	}
}

// GetStats возвращает статистику записи
func (r *AlertRecorder) GetStats() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	return map[string]interface{}{
		"saved":            r.saved,
		"errors":           r.errors,
		"store_enabled":    r.store != nil,
		"timeline_enabled": r.timeline != nil,
	}
}
