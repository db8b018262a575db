// internal/infrastructure/persistence/redis_storage/history_manager/service.go
package history_manager

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"login-activity-monitor/internal/types"
	"login-activity-monitor/pkg/logger"
)

// NewHistoryManager создает нового менеджера истории алертов
func NewHistoryManager(limit int) *HistoryManager {
	if limit < 1 {
		limit = 1000
	}
	return &HistoryManager{
		key:   "loginmon:alerts:timeline",
		limit: limit,
	}
}

// Initialize привязывает менеджер к клиенту Redis
func (hm *HistoryManager) Initialize(client *redis.Client) {
	hm.client = client
}

// RecordEvent добавляет событие алерта в хронологию
func (hm *HistoryManager) RecordEvent(ctx context.Context, event types.AlertEvent) error {
	if hm.client == nil {
		return fmt.Errorf("клиент Redis не инициализирован")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// ZSET с timestamp как score плюс обрезка хвоста одним пайплайном
	pipe := hm.client.Pipeline()
	pipe.ZAdd(ctx, hm.key, &redis.Z{
		Score:  float64(event.DetectedAt.Unix()),
		Member: data,
	})
	pipe.ZRemRangeByRank(ctx, hm.key, 0, -int64(hm.limit+1))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ошибка записи события в хронологию: %w", err)
	}

	return nil
}

// GetHistory возвращает последние события (от старых к новым)
func (hm *HistoryManager) GetHistory(ctx context.Context, limit int) ([]types.AlertEvent, error) {
	if hm.client == nil {
		return nil, fmt.Errorf("клиент Redis не инициализирован")
	}

	if limit <= 0 {
		limit = defaultFetchLimit
	}
	if limit > hm.limit {
		limit = hm.limit
	}

	// Берем последние N записей (от новых к старым)
	results, err := hm.client.ZRevRangeByScore(ctx, hm.key, &redis.ZRangeBy{
		Min:    "-inf",
		Max:    "+inf",
		Offset: 0,
		Count:  int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения хронологии из Redis: %w", err)
	}

	history := decodeEvents(results)

	sort.Slice(history, func(i, j int) bool {
		return history[i].DetectedAt.Before(history[j].DetectedAt)
	})

	return history, nil
}

// GetHistoryRange возвращает события за период
func (hm *HistoryManager) GetHistoryRange(ctx context.Context, start, end time.Time) ([]types.AlertEvent, error) {
	if hm.client == nil {
		return nil, fmt.Errorf("клиент Redis не инициализирован")
	}

	results, err := hm.client.ZRangeByScore(ctx, hm.key, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", start.Unix()),
		Max: fmt.Sprintf("%d", end.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения хронологии из Redis: %w", err)
	}

	return decodeEvents(results), nil
}

// CleanupOldHistory удаляет события старше maxAge
func (hm *HistoryManager) CleanupOldHistory(ctx context.Context, maxAge time.Duration) (int, error) {
	if hm.client == nil {
		return 0, fmt.Errorf("клиент Redis не инициализирован")
	}

	cutoff := time.Now().Add(-maxAge).Unix()

	removed, err := hm.client.ZRemRangeByScore(ctx, hm.key, "-inf", fmt.Sprintf("%d", cutoff)).Result()
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		logger.Debug("🧹 HistoryManager: удалено %d старых событий (старше %v)", removed, maxAge)
	}

	return int(removed), nil
}

// Count возвращает количество событий в хронологии
func (hm *HistoryManager) Count(ctx context.Context) (int64, error) {
	if hm.client == nil {
		return 0, fmt.Errorf("клиент Redis не инициализирован")
	}

	return hm.client.ZCard(ctx, hm.key).Result()
}

// decodeEvents разбирает JSON-записи ZSET, пропуская битые
func decodeEvents(results []string) []types.AlertEvent {
	events := make([]types.AlertEvent, 0, len(results))
	for _, result := range results {
		var event types.AlertEvent
		if err := json.Unmarshal([]byte(result), &event); err == nil {
			events = append(events, event)
		}
	}
	return events
}
