// internal/infrastructure/persistence/in_memory_storage/subscriber.go
package storage

import (
	"sync"

	"login-activity-monitor/internal/types"
)

// SubscribeAll специальное имя источника для подписки на все источники
const SubscribeAll = "all"

// Subscriber интерфейс подписчика на обновления хранилища
type Subscriber interface {
	OnMeasurement(source string, point types.MeasurementPoint)
	OnSourceRemoved(source string)
}

// NewSubscriberFunc оборачивает функцию в подписчика хранилища.
// Возвращается указатель, чтобы подписчика можно было отписать по идентичности.
func NewSubscriberFunc(fn func(source string, point types.MeasurementPoint)) Subscriber {
	return &funcSubscriber{fn: fn}
}

type funcSubscriber struct {
	fn func(source string, point types.MeasurementPoint)
}

func (s *funcSubscriber) OnMeasurement(source string, point types.MeasurementPoint) {
	s.fn(source, point)
}

func (s *funcSubscriber) OnSourceRemoved(source string) {}

// SubscriptionManager управляет подписками на источники
type SubscriptionManager struct {
	mu             sync.RWMutex
	subscribers    map[string]map[Subscriber]struct{} // source -> subscribers
	allSubscribers []Subscriber
}

// NewSubscriptionManager создает нового менеджера подписок
func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{
		subscribers:    make(map[string]map[Subscriber]struct{}),
		allSubscribers: make([]Subscriber, 0),
	}
}

// Subscribe подписывает на обновления источника
func (sm *SubscriptionManager) Subscribe(source string, subscriber Subscriber) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if source == SubscribeAll {
		sm.allSubscribers = append(sm.allSubscribers, subscriber)
		return
	}

	if _, exists := sm.subscribers[source]; !exists {
		sm.subscribers[source] = make(map[Subscriber]struct{})
	}
	sm.subscribers[source][subscriber] = struct{}{}
}

// Unsubscribe отписывает от обновлений источника
func (sm *SubscriptionManager) Unsubscribe(source string, subscriber Subscriber) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if source == SubscribeAll {
		for i, sub := range sm.allSubscribers {
			if sub == subscriber {
				sm.allSubscribers = append(sm.allSubscribers[:i], sm.allSubscribers[i+1:]...)
				break
			}
		}
		return
	}

	if subs, exists := sm.subscribers[source]; exists {
		delete(subs, subscriber)
		if len(subs) == 0 {
			delete(sm.subscribers, source)
		}
	}
}

// NotifyAll уведомляет подписчиков источника и глобальных подписчиков
func (sm *SubscriptionManager) NotifyAll(source string, point types.MeasurementPoint) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if subs, exists := sm.subscribers[source]; exists {
		for subscriber := range subs {
			go subscriber.OnMeasurement(source, point)
		}
	}

	for _, subscriber := range sm.allSubscribers {
		go subscriber.OnMeasurement(source, point)
	}
}

// NotifySourceRemoved уведомляет об удалении источника
func (sm *SubscriptionManager) NotifySourceRemoved(source string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, subscriber := range sm.allSubscribers {
		go subscriber.OnSourceRemoved(source)
	}
}

// GetSubscriberCount возвращает количество подписчиков источника
func (sm *SubscriptionManager) GetSubscriberCount(source string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if source == SubscribeAll {
		return len(sm.allSubscribers)
	}

	if subs, exists := sm.subscribers[source]; exists {
		return len(subs)
	}
	return 0
}
