// internal/infrastructure/transport/event_bus/middleware.go
package events

import (
	"fmt"
	"time"

	"login-activity-monitor/internal/types"
	"login-activity-monitor/pkg/logger"
)

// LoggingMiddleware - middleware для трассировки обработки событий
type LoggingMiddleware struct{}

func (m *LoggingMiddleware) Process(event types.Event, next HandlerFunc) error {
	start := time.Now()

	err := next(event)

	duration := time.Since(start)
	if err != nil {
		logger.Debug("❌ [LoggingMiddleware] Ошибка обработки %s за %v: %v",
			event.Type, duration, err)
	} else {
		logger.Debug("✅ [LoggingMiddleware] %s обработан за %v", event.Type, duration)
	}

	return err
}

// ValidationMiddleware - middleware для валидации событий
type ValidationMiddleware struct{}

func (m *ValidationMiddleware) Process(event types.Event, next HandlerFunc) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.Source == "" {
		return fmt.Errorf("event source is required")
	}
	if event.Timestamp.IsZero() {
		return fmt.Errorf("event timestamp is required")
	}

	return next(event)
}
