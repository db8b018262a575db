// internal/infrastructure/persistence/in_memory_storage/measurement_storage.go
package storage

import (
	"time"

	"login-activity-monitor/internal/types"
)

// MeasurementStorage интерфейс хранилища измерений
type MeasurementStorage interface {
	// Основные операции
	StorePoint(source string, point types.MeasurementPoint) error
	StoreBatch(source string, points []types.MeasurementPoint) (int, error)

	GetLatest(source string) (types.MeasurementPoint, bool)
	GetSources() []string
	SourceExists(source string) bool

	// История измерений
	GetHistory(source string, limit int) ([]types.MeasurementPoint, error)
	GetHistoryRange(source string, start, end time.Time) ([]types.MeasurementPoint, error)

	// Расчеты
	GetAverageValue(source string, period time.Duration) (float64, error)
	GetMinMaxValue(source string, period time.Duration) (min, max float64, err error)

	// Подписки
	Subscribe(source string, subscriber Subscriber) error
	Unsubscribe(source string, subscriber Subscriber) error
	GetSubscriberCount(source string) int

	// Управление
	CleanOldData(maxAge time.Duration) (int, error)
	TruncateHistory(source string, maxPoints int) error
	RemoveSource(source string) error
	Clear() error

	// Статистика
	GetStats() StorageStats
	GetSourceStats(source string) (SourceStats, error)
}

// SourceStats статистика по источнику
type SourceStats struct {
	Source         string    `json:"source"`
	DataPoints     int       `json:"data_points"`
	FirstTimestamp time.Time `json:"first_timestamp"`
	LastTimestamp  time.Time `json:"last_timestamp"`
	LatestValue    float64   `json:"latest_value"`
	AverageValue   float64   `json:"average_value"`
	MinValue       float64   `json:"min_value"`
	MaxValue       float64   `json:"max_value"`
}

// StorageConfig конфигурация хранилища
type StorageConfig struct {
	MaxPointsPerSource int
	MaxSources         int
	CleanupInterval    time.Duration
	RetentionPeriod    time.Duration
}

// StorageOption функция настройки хранилища
type StorageOption func(*StorageConfig)

func WithMaxPointsPerSource(max int) StorageOption {
	return func(c *StorageConfig) {
		c.MaxPointsPerSource = max
	}
}

func WithMaxSources(max int) StorageOption {
	return func(c *StorageConfig) {
		c.MaxSources = max
	}
}

func WithRetentionPeriod(period time.Duration) StorageOption {
	return func(c *StorageConfig) {
		c.RetentionPeriod = period
	}
}
