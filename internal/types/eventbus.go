// internal/types/eventbus.go
package types

import "time"

// EventBus - интерфейс шины событий
type EventBus interface {
	// Publish публикует событие
	Publish(event Event) error

	// PublishSync публикует событие синхронно
	PublishSync(event Event) error

	// Subscribe подписывает обработчик на тип события
	Subscribe(eventType EventType, subscriber EventSubscriber)

	// Unsubscribe отписывает обработчика от типа события
	Unsubscribe(eventType EventType, subscriber EventSubscriber)

	// Start запускает EventBus
	Start()

	// Stop останавливает EventBus
	Stop()

	// GetMetrics возвращает снимок метрик
	GetMetrics() EventBusMetrics
}

// Event - структура события
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
	Metadata  Metadata    `json:"metadata"`
}

// EventType - тип события
type EventType string

// Metadata - метаданные события
type Metadata struct {
	CorrelationID string            `json:"correlation_id"`
	Priority      int               `json:"priority"`
	Tags          []string          `json:"tags"`
	Properties    map[string]string `json:"properties"`
}

// EventSubscriber - интерфейс подписчика
type EventSubscriber interface {
	HandleEvent(event Event) error
	GetName() string
	GetSubscribedEvents() []EventType
}

// EventBusMetrics - снимок метрик EventBus
type EventBusMetrics struct {
	EventsPublished  int64             `json:"events_published"`
	EventsProcessed  int64             `json:"events_processed"`
	EventsFailed     int64             `json:"events_failed"`
	EventsDropped    int64             `json:"events_dropped"`
	SubscribersCount map[EventType]int `json:"subscribers_count"`
	ProcessingTime   time.Duration     `json:"processing_time"`
}

// Константы типов событий
const (
	EventServiceStarted   EventType = "service_started"
	EventServiceStopped   EventType = "service_stopped"
	EventAlertStarted     EventType = "alert.started"
	EventAlertResolved    EventType = "alert.resolved"
	EventAlertStillActive EventType = "alert.still_active"
	EventAnomalyDetected  EventType = "anomaly.detected"
	EventMonitorError     EventType = "monitor.error"
)

// AlertEventType возвращает тип события шины для вида события алерта
func AlertEventType(kind AlertEventKind) EventType {
	switch kind {
	case AlertKindStarted:
		return EventAlertStarted
	case AlertKindResolved:
		return EventAlertResolved
	case AlertKindStillActive:
		return EventAlertStillActive
	default:
		return EventMonitorError
	}
}
