// internal/infrastructure/persistence/in_memory_storage/types.go
package storage

import (
	"time"
)

// StorageStats статистика хранилища
type StorageStats struct {
	TotalSources       int           `json:"total_sources"`
	TotalDataPoints    int64         `json:"total_data_points"`
	OldestTimestamp    time.Time     `json:"oldest_timestamp"`
	NewestTimestamp    time.Time     `json:"newest_timestamp"`
	StorageType        string        `json:"storage_type"`
	MaxPointsPerSource int           `json:"max_points_per_source"`
	RetentionPeriod    time.Duration `json:"retention_period"`
}

// Ошибки хранилища
var (
	ErrSourceNotFound = StorageError{"source not found"}
	ErrStorageFull    = StorageError{"storage is full"}
	ErrHistoryEmpty   = StorageError{"history is empty"}
)

// StorageError ошибка хранилища
type StorageError struct {
	Message string
}

func (e StorageError) Error() string {
	return e.Message
}
