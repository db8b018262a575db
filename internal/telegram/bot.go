// internal/telegram/bot.go
package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"login-activity-monitor/internal/config"
	"login-activity-monitor/internal/types"
	"login-activity-monitor/pkg/utils"
)

// Bot - клиент Telegram Bot API для отправки уведомлений
type Bot struct {
	config        *config.Config
	httpClient    *http.Client
	baseURL       string
	chatID        string
	notifyEnabled bool
	rateLimiter   *RateLimiter
	lastSendTime  time.Time
	minInterval   time.Duration
	mu            sync.RWMutex
}

// RateLimiter - ограничитель частоты запросов
type RateLimiter struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
	minDelay time.Duration
}

// Message - тело запроса sendMessage
type Message struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// NewRateLimiter создает новый ограничитель частоты
func NewRateLimiter(minDelay time.Duration) *RateLimiter {
	return &RateLimiter{
		lastSent: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// CanSend проверяет, можно ли отправить сообщение с данным ключом
func (rl *RateLimiter) CanSend(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if last, exists := rl.lastSent[key]; exists {
		if now.Sub(last) < rl.minDelay {
			return false
		}
	}
	rl.lastSent[key] = now
	return true
}

// NewBot создает новый экземпляр Telegram бота.
// Возвращает nil, если учетные данные не заданы.
func NewBot(cfg *config.Config) *Bot {
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
		log.Println("⚠️ Telegram Bot Token или Chat ID не указаны, бот отключен")
		return nil
	}

	return &Bot{
		config:        cfg,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       fmt.Sprintf("https://api.telegram.org/bot%s/", cfg.TelegramBotToken),
		chatID:        cfg.TelegramChatID,
		notifyEnabled: cfg.TelegramNotify,
		rateLimiter:   NewRateLimiter(2 * time.Second),
		minInterval:   2 * time.Second,
	}
}

// SetNotifyEnabled устанавливает статус уведомлений
func (tb *Bot) SetNotifyEnabled(enabled bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.notifyEnabled = enabled
}

// IsNotifyEnabled возвращает статус уведомлений
func (tb *Bot) IsNotifyEnabled() bool {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return tb.notifyEnabled
}

// SendAlert отправляет уведомление о событии алерта с проверкой частоты
func (tb *Bot) SendAlert(event types.AlertEvent) error {
	if !tb.IsNotifyEnabled() {
		return nil
	}

	// Лимит частоты на вид события, чтобы не заспамить чат still_active
	key := fmt.Sprintf("alert_%s", event.Kind)
	if !tb.rateLimiter.CanSend(key) {
		log.Printf("⚠️ Пропуск Telegram уведомления %s (лимит частоты)", event.Kind)
		return nil
	}

	return tb.SendMessage(tb.FormatAlertMessage(event))
}

// SendMessage отправляет произвольное текстовое сообщение
func (tb *Bot) SendMessage(text string) error {
	// Выдерживаем минимальный интервал между отправками
	tb.mu.Lock()
	now := time.Now()
	if wait := tb.minInterval - now.Sub(tb.lastSendTime); wait > 0 {
		tb.mu.Unlock()
		time.Sleep(wait)
		tb.mu.Lock()
	}
	tb.mu.Unlock()

	message := Message{
		ChatID:    tb.chatID,
		Text:      text,
		ParseMode: "Markdown",
	}

	return tb.sendTelegramRequest("sendMessage", message, true)
}

// SendTestMessage отправляет стартовое сообщение
func (tb *Bot) SendTestMessage() error {
	message := "🤖 *Монитор входов активирован!*\n\n" +
		"✅ Система отслеживания аномалий логинов запущена.\n" +
		fmt.Sprintf("⚡ Порог: %.1f сигмы, серия для алерта: %d",
			tb.config.StdDevThreshold, tb.config.ConsecutiveMinutes)

	return tb.SendMessage(message)
}

// FormatAlertMessage форматирует сообщение о событии алерта
func (tb *Bot) FormatAlertMessage(event types.AlertEvent) string {
	if tb.config.TelegramMessageFormat == config.MessageFormatCompact {
		return tb.formatCompact(event)
	}
	return tb.formatDetailed(event)
}

func (tb *Bot) formatDetailed(event types.AlertEvent) string {
	var b strings.Builder

	switch event.Kind {
	case types.AlertKindStarted:
		b.WriteString("🚨 *АЛЕРТ: аномалия входов*\n\n")
		b.WriteString(fmt.Sprintf("📅 Обнаружено: %s\n", utils.FormatEventTime(event.DetectedAt)))
		if !event.EstimatedStart.IsZero() {
			b.WriteString(fmt.Sprintf("⏱ Оценка начала: %s\n", utils.FormatEventTime(event.EstimatedStart)))
		}
		b.WriteString(fmt.Sprintf("🔍 Причина: %s\n", event.InitialType.DisplayName()))
		b.WriteString(fmt.Sprintf("📉 Значение: %s (первое аномальное: %s)\n",
			utils.FormatCount(event.CurrentValue), utils.FormatCount(event.InitialValue)))
		b.WriteString(fmt.Sprintf("📊 Ожидание: %.1f, диапазон [%.1f, %.1f]",
			event.CurrentMean, event.CurrentLower, event.CurrentUpper))

	case types.AlertKindResolved:
		b.WriteString("✅ *АЛЕРТ РАЗРЕШЕН*\n\n")
		b.WriteString(fmt.Sprintf("📅 Обнаружено: %s\n", utils.FormatEventTime(event.DetectedAt)))
		if !event.EstimatedResolve.IsZero() {
			b.WriteString(fmt.Sprintf("⏱ Оценка окончания: %s\n", utils.FormatEventTime(event.EstimatedResolve)))
		}
		if !event.AlertStart.IsZero() {
			b.WriteString(fmt.Sprintf("🕐 Начало алерта: %s\n", utils.FormatEventTime(event.AlertStart)))
			b.WriteString(fmt.Sprintf("⌛ Длительность: %s\n", utils.FormatDuration(event.DetectedAt.Sub(event.AlertStart))))
		}
		b.WriteString(fmt.Sprintf("📈 Значение: %s (ожидание %.1f)",
			utils.FormatCount(event.CurrentValue), event.CurrentMean))

	case types.AlertKindStillActive:
		b.WriteString("⚠️ *АЛЕРТ ВСЕ ЕЩЕ АКТИВЕН*\n\n")
		b.WriteString(fmt.Sprintf("📅 Проверка: %s\n", utils.FormatEventTime(event.DetectedAt)))
		if !event.AlertStart.IsZero() {
			b.WriteString(fmt.Sprintf("🕐 Начало алерта: %s\n", utils.FormatEventTime(event.AlertStart)))
			b.WriteString(fmt.Sprintf("⌛ Длительность: %s", utils.FormatDuration(event.DetectedAt.Sub(event.AlertStart))))
		}

	default:
		b.WriteString(fmt.Sprintf("📊 Событие %s: %s", event.Kind, utils.FormatEventTime(event.DetectedAt)))
	}

	return b.String()
}

func (tb *Bot) formatCompact(event types.AlertEvent) string {
	switch event.Kind {
	case types.AlertKindStarted:
		return fmt.Sprintf("🚨 [%s] %s вместо ~%.0f (%s)",
			utils.FormatEventTime(event.DetectedAt),
			utils.FormatCount(event.CurrentValue),
			event.CurrentMean,
			event.InitialType.DisplayName())
	case types.AlertKindResolved:
		return fmt.Sprintf("✅ [%s] алерт разрешен, значение %s",
			utils.FormatEventTime(event.DetectedAt),
			utils.FormatCount(event.CurrentValue))
	case types.AlertKindStillActive:
		return fmt.Sprintf("⚠️ [%s] алерт все еще активен", utils.FormatEventTime(event.DetectedAt))
	default:
		return fmt.Sprintf("📊 [%s] событие %s", utils.FormatEventTime(event.DetectedAt), event.Kind)
	}
}

// sendTelegramRequest - общая функция для отправки запросов к Telegram API
func (tb *Bot) sendTelegramRequest(method string, payload interface{}, allowRetry bool) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	resp, err := tb.httpClient.Post(
		tb.baseURL+method,
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer func() {
		if resp.Body != nil {
			resp.Body.Close()
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var telegramResp struct {
		OK          bool   `json:"ok"`
		ErrorCode   int    `json:"error_code,omitempty"`
		Description string `json:"description,omitempty"`
	}

	if err := json.Unmarshal(body, &telegramResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if !telegramResp.OK {
		// На 429 ждем retry_after и пробуем ровно один раз
		if telegramResp.ErrorCode == 429 && allowRetry {
			retryAfter := 5
			var retryResp struct {
				Parameters struct {
					RetryAfter int `json:"retry_after"`
				} `json:"parameters"`
			}
			if json.Unmarshal(body, &retryResp) == nil && retryResp.Parameters.RetryAfter > 0 {
				retryAfter = retryResp.Parameters.RetryAfter
			}
			log.Printf("⚠️ Telegram API лимит, ждем %d секунд", retryAfter)
			time.Sleep(time.Duration(retryAfter) * time.Second)
			return tb.sendTelegramRequest(method, payload, false)
		}
		return fmt.Errorf("telegram API error %d: %s", telegramResp.ErrorCode, telegramResp.Description)
	}

	tb.mu.Lock()
	tb.lastSendTime = time.Now()
	tb.mu.Unlock()

	return nil
}
