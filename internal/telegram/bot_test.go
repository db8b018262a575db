// internal/telegram/bot_test.go
package telegram

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"login-activity-monitor/internal/config"
	"login-activity-monitor/internal/types"
)

func newTestBot(t *testing.T, serverURL, format string) *Bot {
	t.Helper()

	cfg := &config.Config{
		TelegramBotToken:      "test-token",
		TelegramChatID:        "42",
		TelegramNotify:        true,
		TelegramMessageFormat: format,
		StdDevThreshold:       3.0,
		ConsecutiveMinutes:    10,
	}

	bot := NewBot(cfg)
	require.NotNil(t, bot)
	bot.baseURL = serverURL + "/"
	bot.minInterval = 0
	bot.rateLimiter = NewRateLimiter(0)
	return bot
}

func startedEvent() types.AlertEvent {
	detected := time.Date(2024, 3, 11, 9, 15, 0, 0, time.UTC)
	return types.AlertEvent{
		Kind:           types.AlertKindStarted,
		DetectedAt:     detected,
		EstimatedStart: detected.Add(-10 * time.Minute),
		InitialType:    types.AnomalyLow,
		InitialValue:   12,
		CurrentValue:   12,
		CurrentMean:    180.5,
		CurrentUpper:   240.2,
		CurrentLower:   120.8,
	}
}

func TestNewBot_NilWhenUnconfigured(t *testing.T) {
	bot := NewBot(&config.Config{TelegramBotToken: "", TelegramChatID: ""})

	assert.Nil(t, bot)
}

func TestBot_SendMessage_PostsToAPI(t *testing.T) {
	var got Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sendMessage", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer server.Close()

	bot := newTestBot(t, server.URL, config.MessageFormatDetailed)

	require.NoError(t, bot.SendMessage("привет"))
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "привет", got.Text)
	assert.Equal(t, "Markdown", got.ParseMode)
}

func TestBot_SendAlert_SkipsWhenDisabled(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	bot := newTestBot(t, server.URL, config.MessageFormatDetailed)
	bot.SetNotifyEnabled(false)

	require.NoError(t, bot.SendAlert(startedEvent()))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestBot_SendAlert_RateLimitsSameKind(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	bot := newTestBot(t, server.URL, config.MessageFormatCompact)
	bot.rateLimiter = NewRateLimiter(time.Minute)

	require.NoError(t, bot.SendAlert(startedEvent()))
	require.NoError(t, bot.SendAlert(startedEvent()))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestBot_SendMessage_RetriesOnceAfter429(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":1}}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	bot := newTestBot(t, server.URL, config.MessageFormatDetailed)

	require.NoError(t, bot.SendMessage("after limit"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestBot_SendMessage_APIErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	bot := newTestBot(t, server.URL, config.MessageFormatDetailed)

	err := bot.SendMessage("нет чата")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestBot_FormatAlertMessage_Detailed(t *testing.T) {
	bot := newTestBot(t, "http://unused", config.MessageFormatDetailed)

	msg := bot.FormatAlertMessage(startedEvent())

	assert.Contains(t, msg, "🚨 *АЛЕРТ: аномалия входов*")
	assert.Contains(t, msg, "Обнаружено: 2024-03-11 09:15")
	assert.Contains(t, msg, "Оценка начала: 2024-03-11 09:05")
	assert.Contains(t, msg, "Причина: Deviation (Low)")
	assert.Contains(t, msg, "диапазон [120.8, 240.2]")
}

func TestBot_FormatAlertMessage_ResolvedWithDuration(t *testing.T) {
	bot := newTestBot(t, "http://unused", config.MessageFormatDetailed)
	detected := time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)

	msg := bot.FormatAlertMessage(types.AlertEvent{
		Kind:             types.AlertKindResolved,
		DetectedAt:       detected,
		EstimatedResolve: detected.Add(-5 * time.Minute),
		AlertStart:       detected.Add(-95 * time.Minute),
		CurrentValue:     210,
		CurrentMean:      205.3,
	})

	assert.Contains(t, msg, "✅ *АЛЕРТ РАЗРЕШЕН*")
	assert.Contains(t, msg, "Длительность: 1ч 35м")
	assert.Contains(t, msg, "ожидание 205.3")
}

func TestBot_FormatAlertMessage_Compact(t *testing.T) {
	bot := newTestBot(t, "http://unused", config.MessageFormatCompact)

	msg := bot.FormatAlertMessage(startedEvent())

	assert.Equal(t, "🚨 [2024-03-11 09:15] 12 вместо ~180 (Deviation (Low))", msg)
}

func TestRateLimiter_BlocksWithinWindow(t *testing.T) {
	rl := NewRateLimiter(time.Minute)

	assert.True(t, rl.CanSend("key"))
	assert.False(t, rl.CanSend("key"))
	assert.True(t, rl.CanSend("other"))
}
