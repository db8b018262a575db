// internal/infrastructure/transport/event_bus/event_bus.go
package events

import (
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"login-activity-monitor/internal/types"
	"login-activity-monitor/pkg/logger"
)

// EventBus - центральная шина событий
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[types.EventType][]types.EventSubscriber
	middlewares []Middleware
	eventBuffer chan types.Event
	config      EventBusConfig
	running     bool
	stopChan    chan struct{}
	wg          sync.WaitGroup

	metricsMu sync.RWMutex
	metrics   types.EventBusMetrics
}

// EventBusConfig - конфигурация EventBus
type EventBusConfig struct {
	BufferSize    int           `json:"buffer_size"`
	WorkerCount   int           `json:"worker_count"`
	MaxRetries    int           `json:"max_retries"`
	RetryDelay    time.Duration `json:"retry_delay"`
	EnableMetrics bool          `json:"enable_metrics"`
	EnableLogging bool          `json:"enable_logging"`
}

// DefaultConfig - конфигурация по умолчанию
var DefaultConfig = EventBusConfig{
	BufferSize:    1000,
	WorkerCount:   4,
	MaxRetries:    3,
	RetryDelay:    100 * time.Millisecond,
	EnableMetrics: true,
	EnableLogging: true,
}

// NewEventBus создает новую шину событий
func NewEventBus(config ...EventBusConfig) *EventBus {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = DefaultConfig.BufferSize
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = DefaultConfig.WorkerCount
	}

	bus := &EventBus{
		subscribers: make(map[types.EventType][]types.EventSubscriber),
		middlewares: make([]Middleware, 0),
		eventBuffer: make(chan types.Event, cfg.BufferSize),
		metrics: types.EventBusMetrics{
			SubscribersCount: make(map[types.EventType]int),
		},
		config:   cfg,
		stopChan: make(chan struct{}),
	}

	if cfg.EnableMetrics {
		bus.startMetricsCollection()
	}

	return bus
}

// Start запускает EventBus
func (b *EventBus) Start() {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return
	}
	b.running = true
	b.mu.Unlock()

	// Запускаем обработчиков событий
	for i := 0; i < b.config.WorkerCount; i++ {
		b.wg.Add(1)
		go b.eventWorker(i)
	}

	if b.config.EnableLogging {
		logger.Info("🚀 EventBus запущен с %d обработчиками", b.config.WorkerCount)
	}
}

// Stop останавливает EventBus, дорабатывая события из буфера
func (b *EventBus) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	b.mu.Unlock()

	close(b.stopChan)
	b.wg.Wait()

	if b.config.EnableLogging {
		logger.Info("🛑 EventBus остановлен")
	}
}

// Subscribe подписывает обработчик на тип события
func (b *EventBus) Subscribe(eventType types.EventType, subscriber types.EventSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Подписчик должен заявить этот тип события
	found := false
	for _, et := range subscriber.GetSubscribedEvents() {
		if et == eventType {
			found = true
			break
		}
	}

	if !found {
		logger.Warn("⚠️ Подписчик %s не заявил событие %s", subscriber.GetName(), eventType)
		return
	}

	b.subscribers[eventType] = append(b.subscribers[eventType], subscriber)

	b.metricsMu.Lock()
	b.metrics.SubscribersCount[eventType] = len(b.subscribers[eventType])
	b.metricsMu.Unlock()

	if b.config.EnableLogging {
		logger.Debug("✅ %s подписался на %s", subscriber.GetName(), eventType)
	}
}

// Unsubscribe отписывает обработчик от типа события
func (b *EventBus) Unsubscribe(eventType types.EventType, subscriber types.EventSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, exists := b.subscribers[eventType]
	if !exists {
		return
	}

	for i, sub := range subscribers {
		if sub == subscriber {
			b.subscribers[eventType] = append(subscribers[:i], subscribers[i+1:]...)

			b.metricsMu.Lock()
			b.metrics.SubscribersCount[eventType] = len(b.subscribers[eventType])
			b.metricsMu.Unlock()

			if b.config.EnableLogging {
				logger.Debug("❌ %s отписался от %s", subscriber.GetName(), eventType)
			}
			return
		}
	}
}

// Publish публикует событие в буфер шины
func (b *EventBus) Publish(event types.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.running {
		return fmt.Errorf("event bus is not running")
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventBuffer <- event:
		b.metricsMu.Lock()
		b.metrics.EventsPublished++
		b.metricsMu.Unlock()

		logger.Debug("📤 Опубликовано событие: %s от %s", event.Type, event.Source)
		return nil
	default:
		b.metricsMu.Lock()
		b.metrics.EventsDropped++
		b.metricsMu.Unlock()

		if b.config.EnableLogging {
			logger.Warn("⚠️ Буфер событий полон, событие отброшено: %s", event.Type)
		}
		return fmt.Errorf("event buffer is full")
	}
}

// PublishSync публикует событие синхронно, минуя буфер
func (b *EventBus) PublishSync(event types.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.metricsMu.Lock()
	b.metrics.EventsPublished++
	b.metricsMu.Unlock()

	return b.processEvent(event)
}

// AddMiddleware добавляет middleware в цепочку обработки
func (b *EventBus) AddMiddleware(middleware Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.middlewares = append(b.middlewares, middleware)

	if b.config.EnableLogging {
		logger.Debug("➕ Добавлен middleware: %T", middleware)
	}
}

// eventWorker - обработчик событий
func (b *EventBus) eventWorker(id int) {
	defer b.wg.Done()

	logger.Debug("🔍 [EventWorker %d] Запущен", id)

	for {
		select {
		case event := <-b.eventBuffer:
			b.processEvent(event)
		case <-b.stopChan:
			// Дорабатываем события, оставшиеся в буфере
			for {
				select {
				case event := <-b.eventBuffer:
					b.processEvent(event)
				default:
					logger.Debug("🔍 [EventWorker %d] Остановлен", id)
					return
				}
			}
		}
	}
}

// processEvent обрабатывает одно событие
func (b *EventBus) processEvent(event types.Event) (err error) {
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("❌ Паника в обработчике события %s: %v\n%s", event.Type, r, debug.Stack())

			b.metricsMu.Lock()
			b.metrics.EventsFailed++
			b.metricsMu.Unlock()

			err = fmt.Errorf("panic while handling event %s: %v", event.Type, r)
		}

		b.metricsMu.Lock()
		b.metrics.EventsProcessed++
		b.metrics.ProcessingTime += time.Since(startTime)
		b.metricsMu.Unlock()
	}()

	b.mu.RLock()
	subscribers := make([]types.EventSubscriber, len(b.subscribers[event.Type]))
	copy(subscribers, b.subscribers[event.Type])
	middlewares := b.middlewares
	b.mu.RUnlock()

	if len(subscribers) == 0 {
		logger.Debug("⚠️ Нет подписчиков для события: %s", event.Type)
		return nil
	}

	handler := b.createHandlerChain(subscribers)
	return b.executeWithMiddleware(event, middlewares, handler)
}

// createHandlerChain создает цепочку обработчиков
func (b *EventBus) createHandlerChain(subscribers []types.EventSubscriber) HandlerFunc {
	return func(event types.Event) error {
		var lastError error

		for _, subscriber := range subscribers {
			if err := b.handleEventWithRetry(event, subscriber); err != nil {
				lastError = err
				logger.Error("❌ Ошибка обработки события %s подписчиком %s: %v",
					event.Type, subscriber.GetName(), err)
			}
		}

		return lastError
	}
}

// handleEventWithRetry обрабатывает событие с повторными попытками
func (b *EventBus) handleEventWithRetry(event types.Event, subscriber types.EventSubscriber) error {
	attempts := b.config.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = subscriber.HandleEvent(event); err == nil {
			if attempt > 1 {
				logger.Debug("✅ %s обработал %s с попытки %d", subscriber.GetName(), event.Type, attempt)
			}
			return nil
		}

		if attempt < attempts && b.config.RetryDelay > 0 {
			time.Sleep(b.config.RetryDelay)
		}
	}

	b.metricsMu.Lock()
	b.metrics.EventsFailed++
	b.metricsMu.Unlock()

	return err
}

// executeWithMiddleware выполняет обработку через цепочку middleware
func (b *EventBus) executeWithMiddleware(event types.Event, middlewares []Middleware, handler HandlerFunc) error {
	chain := handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		mw := middlewares[i]
		next := chain
		chain = func(event types.Event) error {
			return mw.Process(event, next)
		}
	}

	return chain(event)
}

// GetMetrics возвращает снимок метрик
func (b *EventBus) GetMetrics() types.EventBusMetrics {
	b.metricsMu.RLock()
	defer b.metricsMu.RUnlock()

	snapshot := b.metrics
	snapshot.SubscribersCount = make(map[types.EventType]int, len(b.metrics.SubscribersCount))
	for eventType, count := range b.metrics.SubscribersCount {
		snapshot.SubscribersCount[eventType] = count
	}

	return snapshot
}

// GetMetricsMap возвращает метрики в виде map (для статусных отчетов)
func (b *EventBus) GetMetricsMap() map[string]interface{} {
	metrics := b.GetMetrics()
	return map[string]interface{}{
		"events_published": metrics.EventsPublished,
		"events_processed": metrics.EventsProcessed,
		"events_failed":    metrics.EventsFailed,
		"events_dropped":   metrics.EventsDropped,
		"processing_time":  metrics.ProcessingTime.String(),
		"subscribers":      metrics.SubscribersCount,
	}
}

// GetSubscriberCount возвращает количество подписчиков
func (b *EventBus) GetSubscriberCount(eventType types.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscribers[eventType])
}

// GetEventTypes возвращает все типы событий с подписчиками
func (b *EventBus) GetEventTypes() []types.EventType {
	b.mu.RLock()
	defer b.mu.RUnlock()

	eventTypes := make([]types.EventType, 0, len(b.subscribers))
	for eventType := range b.subscribers {
		eventTypes = append(eventTypes, eventType)
	}

	sort.Slice(eventTypes, func(i, j int) bool {
		return eventTypes[i] < eventTypes[j]
	})

	return eventTypes
}

// IsRunning возвращает true если EventBus запущен
func (b *EventBus) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.running
}

// HealthCheck проверяет здоровье шины
func (b *EventBus) HealthCheck() bool {
	if !b.IsRunning() || b.eventBuffer == nil {
		return false
	}

	select {
	case <-b.stopChan:
		return false
	default:
		return true
	}
}

// startMetricsCollection запускает периодический вывод метрик
func (b *EventBus) startMetricsCollection() {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				b.logMetrics()
			case <-b.stopChan:
				return
			}
		}
	}()
}

// logMetrics логирует метрики
func (b *EventBus) logMetrics() {
	metrics := b.GetMetrics()

	logger.Info("📊 EventBus метрики:")
	logger.Info("   Опубликовано: %d событий", metrics.EventsPublished)
	logger.Info("   Обработано: %d событий", metrics.EventsProcessed)
	logger.Info("   Ошибок: %d событий", metrics.EventsFailed)

	if metrics.EventsProcessed > 0 {
		avg := metrics.ProcessingTime / time.Duration(metrics.EventsProcessed)
		logger.Info("   Среднее время обработки: %v", avg)
	}

	for eventType, count := range metrics.SubscribersCount {
		logger.Info("   %s: %d подписчиков", eventType, count)
	}
}
