// internal/types/measurement.go
package types

import (
	"time"
)

// MeasurementPoint одна точка временного ряда (минута, количество логинов)
type MeasurementPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// SeriesInfo сводка по загруженному ряду
type SeriesInfo struct {
	Source      string    `json:"source"`
	Points      int       `json:"points"`
	CoercedRows int       `json:"coerced_rows"` // нечисловые/отрицательные значения, замененные нулем
	FirstPoint  time.Time `json:"first_point"`
	LastPoint   time.Time `json:"last_point"`
}

// IsChronological проверяет неубывание меток времени ряда (дубликаты допустимы)
func IsChronological(points []MeasurementPoint) bool {
	for i := 1; i < len(points); i++ {
		if points[i].Timestamp.Before(points[i-1].Timestamp) {
			return false
		}
	}
	return true
}
