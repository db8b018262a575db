// internal/infrastructure/transport/event_bus/factory.go
package events

import (
	"time"

	"login-activity-monitor/internal/config"
)

// Factory - фабрика для создания EventBus
type Factory struct{}

// NewEventBusFromConfig создает EventBus из конфигурации
func (f *Factory) NewEventBusFromConfig(cfg *config.Config) *EventBus {
	eventBusConfig := EventBusConfig{
		BufferSize:    cfg.EventBusBufferSize,
		WorkerCount:   cfg.EventBusWorkers,
		MaxRetries:    3,
		RetryDelay:    100 * time.Millisecond,
		EnableMetrics: true,
		EnableLogging: true,
	}

	bus := NewEventBus(eventBusConfig)

	if cfg.DebugMode {
		bus.AddMiddleware(&LoggingMiddleware{})
	}
	bus.AddMiddleware(&ValidationMiddleware{})

	return bus
}
