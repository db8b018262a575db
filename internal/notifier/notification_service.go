// internal/notifier/notification_service.go
package notifier

import (
	"fmt"
	"log"
	"sync"
	"time"

	"login-activity-monitor/internal/types"
)

// Notifier интерфейс отдельного нотификатора
type Notifier interface {
	Send(event types.AlertEvent) error
	Name() string
	IsEnabled() bool
	SetEnabled(bool)
	GetStats() map[string]interface{}
}

// CompositeNotificationService композитный сервис уведомлений
type CompositeNotificationService struct {
	notifiers []Notifier
	enabled   bool
	mu        sync.RWMutex
	stats     map[string]interface{}
}

// NewCompositeNotificationService создает композитный сервис
func NewCompositeNotificationService() *CompositeNotificationService {
	return &CompositeNotificationService{
		notifiers: make([]Notifier, 0),
		enabled:   true,
		stats: map[string]interface{}{
			"total_sent":     0,
			"successful":     0,
			"failed":         0,
			"last_sent_time": time.Time{},
		},
	}
}

// Send отправляет событие через все включенные нотификаторы.
// Ошибка возвращается только если не доставил ни один из них.
func (c *CompositeNotificationService) Send(event types.AlertEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return nil
	}

	var lastError error
	sentCount := 0
	enabledCount := 0

	for _, notifier := range c.notifiers {
		if !notifier.IsEnabled() {
			continue
		}
		enabledCount++
		if err := notifier.Send(event); err != nil {
			log.Printf("❌ Ошибка отправки через %s: %v", notifier.Name(), err)
			lastError = err
		} else {
			sentCount++
		}
	}

	c.stats["total_sent"] = c.stats["total_sent"].(int) + 1
	if sentCount == enabledCount {
		c.stats["successful"] = c.stats["successful"].(int) + 1
	} else {
		c.stats["failed"] = c.stats["failed"].(int) + 1
	}
	c.stats["last_sent_time"] = time.Now()

	if enabledCount > 0 && sentCount == 0 {
		return fmt.Errorf("не удалось доставить событие ни одним нотификатором: %w", lastError)
	}

	return nil
}

// SendBatch отправляет пакет событий
func (c *CompositeNotificationService) SendBatch(events []types.AlertEvent) error {
	if !c.IsEnabled() || len(events) == 0 {
		return nil
	}

	for _, event := range events {
		if err := c.Send(event); err != nil {
			return err
		}
	}

	return nil
}

// SetEnabled включает/выключает сервис
func (c *CompositeNotificationService) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// IsEnabled возвращает статус
func (c *CompositeNotificationService) IsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// GetStats возвращает статистику сервиса и всех нотификаторов
func (c *CompositeNotificationService) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]interface{})
	for k, v := range c.stats {
		result[k] = v
	}

	notifierStats := make(map[string]interface{})
	for _, notifier := range c.notifiers {
		notifierStats[notifier.Name()] = notifier.GetStats()
	}
	result["notifiers"] = notifierStats

	return result
}

// AddNotifier добавляет нотификатор
func (c *CompositeNotificationService) AddNotifier(notifier Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifiers = append(c.notifiers, notifier)
}

// RemoveNotifier удаляет нотификатор по имени
func (c *CompositeNotificationService) RemoveNotifier(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, notifier := range c.notifiers {
		if notifier.Name() == name {
			c.notifiers = append(c.notifiers[:i], c.notifiers[i+1:]...)
			break
		}
	}
}

// GetNotifierByName возвращает нотификатор по имени
func (c *CompositeNotificationService) GetNotifierByName(name string) Notifier {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, notifier := range c.notifiers {
		if notifier.Name() == name {
			return notifier
		}
	}
	return nil
}

// HealthCheck проверяет, что хотя бы один нотификатор включен
func (c *CompositeNotificationService) HealthCheck() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.enabled || len(c.notifiers) == 0 {
		return false
	}

	for _, notifier := range c.notifiers {
		if notifier.IsEnabled() {
			return true
		}
	}

	return false
}
