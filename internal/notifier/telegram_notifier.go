// internal/notifier/telegram_notifier.go
package notifier

import (
	"log"
	"sync"
	"time"

	"login-activity-monitor/internal/telegram"
	"login-activity-monitor/internal/types"
)

// TelegramNotifier нотификатор, отправляющий события алертов через Telegram бота
type TelegramNotifier struct {
	bot     *telegram.Bot
	enabled bool
	mu      sync.Mutex
	stats   map[string]interface{}
}

// NewTelegramNotifier создает Telegram нотификатор.
// Возвращает nil, если бот не сконфигурирован.
func NewTelegramNotifier(bot *telegram.Bot) *TelegramNotifier {
	if bot == nil {
		log.Println("⚠️ TelegramNotifier: бот не сконфигурирован, нотификатор отключен")
		return nil
	}

	return &TelegramNotifier{
		bot:     bot,
		enabled: true,
		stats: map[string]interface{}{
			"alerts_sent":    0,
			"errors":         0,
			"last_sent_time": time.Time{},
			"type":           "telegram",
		},
	}
}

// Send отправляет событие алерта в Telegram
func (tn *TelegramNotifier) Send(event types.AlertEvent) error {
	tn.mu.Lock()
	enabled := tn.enabled
	tn.mu.Unlock()

	if !enabled {
		return nil
	}

	if err := tn.bot.SendAlert(event); err != nil {
		tn.mu.Lock()
		tn.stats["errors"] = tn.stats["errors"].(int) + 1
		tn.mu.Unlock()
		return err
	}

	tn.mu.Lock()
	tn.stats["alerts_sent"] = tn.stats["alerts_sent"].(int) + 1
	tn.stats["last_sent_time"] = time.Now()
	tn.mu.Unlock()

	return nil
}

// Name возвращает имя
func (tn *TelegramNotifier) Name() string {
	return "telegram"
}

// IsEnabled возвращает статус
func (tn *TelegramNotifier) IsEnabled() bool {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	return tn.enabled
}

// SetEnabled включает/выключает
func (tn *TelegramNotifier) SetEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.enabled = enabled
}

// GetStats возвращает статистику
func (tn *TelegramNotifier) GetStats() map[string]interface{} {
	tn.mu.Lock()
	defer tn.mu.Unlock()

	statsCopy := make(map[string]interface{}, len(tn.stats))
	for k, v := range tn.stats {
		statsCopy[k] = v
	}
	return statsCopy
}
