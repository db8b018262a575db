// internal/notifier/event_subscriber.go
package notifier

import (
	"fmt"

	"login-activity-monitor/internal/types"
)

// NotificationService подписчик шины событий, транслирующий
// события алертов в композитный сервис уведомлений
type NotificationService struct {
	composite *CompositeNotificationService
}

// NewNotificationService создает подписчика уведомлений
func NewNotificationService(composite *CompositeNotificationService) *NotificationService {
	return &NotificationService{
		composite: composite,
	}
}

// HandleEvent обрабатывает событие шины
func (ns *NotificationService) HandleEvent(event types.Event) error {
	alertEvent, ok := event.Data.(types.AlertEvent)
	if !ok {
		return fmt.Errorf("unexpected alert event payload %T", event.Data)
	}

	return ns.composite.Send(alertEvent)
}

// GetName возвращает имя подписчика
func (ns *NotificationService) GetName() string {
	return "notification_service"
}

// GetSubscribedEvents возвращает типы событий подписчика
func (ns *NotificationService) GetSubscribedEvents() []types.EventType {
	return []types.EventType{
		types.EventAlertStarted,
		types.EventAlertResolved,
		types.EventAlertStillActive,
	}
}

// Composite возвращает композитный сервис подписчика
func (ns *NotificationService) Composite() *CompositeNotificationService {
	return ns.composite
}
