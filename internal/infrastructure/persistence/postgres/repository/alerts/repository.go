// internal/infrastructure/persistence/postgres/repository/alerts/repository.go
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"login-activity-monitor/internal/infrastructure/cache/redis"
	"login-activity-monitor/internal/infrastructure/persistence/postgres/models"
	"login-activity-monitor/internal/types"
	"login-activity-monitor/pkg/logger"
)

const recentCacheTTL = 5 * time.Minute

// AlertRepository интерфейс репозитория событий алертов
type AlertRepository interface {
	SaveEvent(ctx context.Context, event types.AlertEvent) (string, error)
	GetRecent(ctx context.Context, limit int) ([]types.AlertEvent, error)
	GetByKind(ctx context.Context, kind types.AlertEventKind, limit int) ([]types.AlertEvent, error)
	GetBetween(ctx context.Context, start, end time.Time) ([]types.AlertEvent, error)
	CountByKind(ctx context.Context) (map[types.AlertEventKind]int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// repositoryImpl реализация репозитория событий алертов
type repositoryImpl struct {
	db    *sqlx.DB
	cache *redis.Cache
}

// NewAlertRepository создает новый репозиторий событий алертов.
// cache может быть nil, тогда чтения всегда идут в базу.
func NewAlertRepository(db *sqlx.DB, cache *redis.Cache) AlertRepository {
	return &repositoryImpl{
		db:    db,
		cache: cache,
	}
}

// SaveEvent сохраняет событие алерта и возвращает его ID
func (r *repositoryImpl) SaveEvent(ctx context.Context, event types.AlertEvent) (string, error) {
	record := models.NewAlertEventRecord(event)

	query := `
	INSERT INTO alert_events (
		id, kind, detected_at,
		estimated_start, estimated_resolve, alert_start,
		initial_type, initial_value,
		current_value, current_mean, current_upper, current_lower
	) VALUES (
		:id, :kind, :detected_at,
		:estimated_start, :estimated_resolve, :alert_start,
		:initial_type, :initial_value,
		:current_value, :current_mean, :current_upper, :current_lower
	)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, record); err != nil {
		return "", fmt.Errorf("ошибка сохранения события алерта: %w", err)
	}

	r.invalidateCache(ctx)

	return record.ID, nil
}

// GetRecent возвращает последние события, новые первыми
func (r *repositoryImpl) GetRecent(ctx context.Context, limit int) ([]types.AlertEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	if r.cache != nil {
		var cached []types.AlertEvent
		if err := r.cache.GetRecentAlerts(ctx, &cached); err == nil && len(cached) >= limit {
			return cached[:limit], nil
		}
	}

	query := `SELECT * FROM alert_events ORDER BY detected_at DESC, created_at DESC LIMIT $1`

	var records []models.AlertEventRecord
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("ошибка получения последних событий: %w", err)
	}

	events := toEvents(records)

	if r.cache != nil {
		if err := r.cache.SetRecentAlerts(ctx, events, recentCacheTTL); err != nil {
			logger.Warn("⚠️ Не удалось закэшировать события алертов: %v", err)
		}
	}

	return events, nil
}

// GetByKind возвращает последние события заданного вида, новые первыми
func (r *repositoryImpl) GetByKind(ctx context.Context, kind types.AlertEventKind, limit int) ([]types.AlertEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT * FROM alert_events
	WHERE kind = $1
	ORDER BY detected_at DESC, created_at DESC
	LIMIT $2
	`

	var records []models.AlertEventRecord
	if err := r.db.SelectContext(ctx, &records, query, string(kind), limit); err != nil {
		return nil, fmt.Errorf("ошибка получения событий вида %s: %w", kind, err)
	}

	return toEvents(records), nil
}

// GetBetween возвращает события в интервале [start, end] в хронологическом порядке
func (r *repositoryImpl) GetBetween(ctx context.Context, start, end time.Time) ([]types.AlertEvent, error) {
	query := `
	SELECT * FROM alert_events
	WHERE detected_at >= $1 AND detected_at <= $2
	ORDER BY detected_at ASC, created_at ASC
	`

	var records []models.AlertEventRecord
	if err := r.db.SelectContext(ctx, &records, query, start, end); err != nil {
		return nil, fmt.Errorf("ошибка получения событий за интервал: %w", err)
	}

	return toEvents(records), nil
}

// CountByKind возвращает количество сохраненных событий по видам
func (r *repositoryImpl) CountByKind(ctx context.Context) (map[types.AlertEventKind]int64, error) {
	query := `SELECT kind, COUNT(*) AS count FROM alert_events GROUP BY kind`

	var rows []struct {
		Kind  string `db:"kind"`
		Count int64  `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("ошибка подсчета событий: %w", err)
	}

	counts := make(map[types.AlertEventKind]int64, len(rows))
	for _, row := range rows {
		counts[types.AlertEventKind(row.Kind)] = row.Count
	}

	return counts, nil
}

// DeleteOlderThan удаляет события старше cutoff и возвращает число удаленных строк
func (r *repositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM alert_events WHERE detected_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления старых событий: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		logger.Info("🧹 Удалено %d событий алертов старше %s", deleted, cutoff.Format("2006-01-02 15:04"))
		r.invalidateCache(ctx)
	}

	return deleted, nil
}

// invalidateCache сбрасывает кэш событий, ошибки только логируются
func (r *repositoryImpl) invalidateCache(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.InvalidateAlerts(ctx); err != nil {
		logger.Warn("⚠️ Не удалось сбросить кэш событий алертов: %v", err)
	}
}

func toEvents(records []models.AlertEventRecord) []types.AlertEvent {
	events := make([]types.AlertEvent, 0, len(records))
	for _, record := range records {
		events = append(events, record.ToAlertEvent())
	}
	return events
}
