// internal/notifier/console_notifier.go
package notifier

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"login-activity-monitor/internal/config"
	"login-activity-monitor/internal/types"
)

const eventTimeLayout = "2006-01-02 15:04:05"

// ConsoleNotifier нотификатор для консоли.
// Подробный формат печатает блок с границами ожидаемого диапазона,
// компактный - одну строку на событие.
type ConsoleNotifier struct {
	out       io.Writer
	enabled   bool
	compact   bool
	streakLen int
	epsilon   float64
	mu        sync.Mutex
	stats     map[string]interface{}
}

// NewConsoleNotifier создает консольный нотификатор
func NewConsoleNotifier(cfg *config.Config) *ConsoleNotifier {
	return &ConsoleNotifier{
		out:       os.Stdout,
		enabled:   true,
		compact:   cfg.ConsoleCompact,
		streakLen: cfg.ConsecutiveMinutes,
		epsilon:   cfg.StdDevEpsilon,
		stats: map[string]interface{}{
			"sent":           0,
			"last_sent_time": time.Time{},
			"type":           "console",
		},
	}
}

// Send печатает событие алерта в консоль
func (c *ConsoleNotifier) Send(event types.AlertEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return nil
	}

	if c.compact {
		fmt.Fprintln(c.out, c.formatCompact(event))
	} else {
		fmt.Fprint(c.out, c.formatBlock(event))
	}

	c.stats["sent"] = c.stats["sent"].(int) + 1
	c.stats["last_sent_time"] = time.Now()

	return nil
}

func (c *ConsoleNotifier) formatBlock(event types.AlertEvent) string {
	switch event.Kind {
	case types.AlertKindStarted:
		return fmt.Sprintf(
			"--- ALERT STARTED ---\n"+
				"Detected at Time: %s\n"+
				"Estimated Start:  %s (Issue lasting >= %d mins)\n"+
				"Initial Reason:   Anomaly Type '%s'\n"+
				"  Initial Value:  %.2f at %s\n"+
				"  Current Value:  %.2f at %s\n"+
				"  Baseline Mean:  %.2f (this minute)\n"+
				"  Expected Range: [%.2f - %.2f] (if std > %g)\n"+
				"--------------------\n",
			event.DetectedAt.Format(eventTimeLayout),
			event.EstimatedStart.Format(eventTimeLayout), c.streakLen,
			reasonLabel(event.InitialType),
			event.InitialValue, event.EstimatedStart.Format(eventTimeLayout),
			event.CurrentValue, event.DetectedAt.Format(eventTimeLayout),
			event.CurrentMean,
			event.CurrentLower, event.CurrentUpper, c.epsilon,
		)

	case types.AlertKindResolved:
		return fmt.Sprintf(
			"--- ALERT RESOLVED ---\n"+
				"Detected at Time: %s\n"+
				"Estimated Resolve: %s (Normal >= %d mins)\n"+
				"Original Alert Start: %s (Reason: '%s')\n"+
				"  Current Value: %.2f\n"+
				"  Baseline Mean: %.2f\n"+
				"--------------------\n",
			event.DetectedAt.Format(eventTimeLayout),
			event.EstimatedResolve.Format(eventTimeLayout), c.streakLen,
			event.AlertStart.Format(eventTimeLayout), reasonLabel(event.InitialType),
			event.CurrentValue,
			event.CurrentMean,
		)

	case types.AlertKindStillActive:
		return fmt.Sprintf(
			"Warning: Monitoring finished while an alert starting around %s (Reason: '%s') was still active.\n",
			event.AlertStart.Format(eventTimeLayout), reasonLabel(event.InitialType),
		)

	default:
		return fmt.Sprintf("Unknown alert event %q at %s\n", event.Kind, event.DetectedAt.Format(eventTimeLayout))
	}
}

func (c *ConsoleNotifier) formatCompact(event types.AlertEvent) string {
	switch event.Kind {
	case types.AlertKindStarted:
		return fmt.Sprintf("ALERT STARTED  [%s] value=%.2f expected=%.2f reason=%s",
			event.DetectedAt.Format(eventTimeLayout),
			event.CurrentValue, event.CurrentMean, reasonLabel(event.InitialType))
	case types.AlertKindResolved:
		return fmt.Sprintf("ALERT RESOLVED [%s] value=%.2f expected=%.2f",
			event.DetectedAt.Format(eventTimeLayout),
			event.CurrentValue, event.CurrentMean)
	case types.AlertKindStillActive:
		return fmt.Sprintf("ALERT ACTIVE   [%s] since %s",
			event.DetectedAt.Format(eventTimeLayout),
			event.AlertStart.Format(eventTimeLayout))
	default:
		return fmt.Sprintf("ALERT EVENT %s [%s]", event.Kind, event.DetectedAt.Format(eventTimeLayout))
	}
}

// reasonLabel возвращает текстовую метку типа аномалии
func reasonLabel(t types.AnomalyType) string {
	switch t {
	case types.AnomalyZero:
		return "Zero"
	case types.AnomalyLow:
		return "Low"
	case types.AnomalyHigh:
		return "High"
	default:
		return "Normal"
	}
}

// Name возвращает имя
func (c *ConsoleNotifier) Name() string {
	return "console"
}

// IsEnabled возвращает статус
func (c *ConsoleNotifier) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// SetEnabled включает/выключает
func (c *ConsoleNotifier) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// GetStats возвращает статистику
func (c *ConsoleNotifier) GetStats() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	statsCopy := make(map[string]interface{}, len(c.stats))
	for k, v := range c.stats {
		statsCopy[k] = v
	}
	return statsCopy
}
