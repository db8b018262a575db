// internal/notifier/factory.go
package notifier

import (
	"log"
	"time"

	"login-activity-monitor/internal/config"
	"login-activity-monitor/internal/telegram"
)

// NotifierFactory фабрика для создания нотификаторов
type NotifierFactory struct{}

// NewNotifierFactory создает новую фабрику нотификаторов
func NewNotifierFactory() *NotifierFactory {
	return &NotifierFactory{}
}

// CreateCompositeNotifier собирает композитный сервис по конфигурации.
// Консольный нотификатор добавляется всегда, Telegram - при наличии учетных данных.
func (nf *NotifierFactory) CreateCompositeNotifier(cfg *config.Config) *CompositeNotificationService {
	service := NewCompositeNotificationService()

	service.AddNotifier(NewConsoleNotifier(cfg))

	if cfg.IsTelegramConfigured() {
		bot := telegram.NewBot(cfg)
		if telegramNotifier := NewTelegramNotifier(bot); telegramNotifier != nil {
			telegramNotifier.SetEnabled(cfg.TelegramNotify)
			service.AddNotifier(telegramNotifier)

			if cfg.TelegramNotify {
				// Стартовое сообщение после прогрева остальных сервисов
				go func() {
					time.Sleep(2 * time.Second)
					if err := bot.SendTestMessage(); err != nil {
						log.Printf("⚠️ Не удалось отправить стартовое сообщение: %v", err)
					}
				}()
			}
		}
	} else {
		log.Println("⚠️ Telegram не настроен, используется только консольный нотификатор")
	}

	return service
}
