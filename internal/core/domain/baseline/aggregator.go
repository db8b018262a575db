// internal/core/domain/baseline/aggregator.go
package baseline

import (
	"math"

	"login-activity-monitor/internal/types"
	"login-activity-monitor/internal/types/analysis"
	"login-activity-monitor/pkg/logger"
)

// Aggregator - агрегатор базовой линии: сворачивает ряд измерений в
// статистику (mean, stddev) по каждой минуте недели
type Aggregator struct{}

// NewAggregator создает новый агрегатор
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Compute группирует точки ряда по минутам недели и считает по каждой
// группе среднее и выборочное стандартное отклонение (знаменатель n-1).
// Группа из одной точки получает stddev 0: свидетельств разброса нет.
// Пустой ряд - нарушение контракта входных данных.
func (a *Aggregator) Compute(points []types.MeasurementPoint) (*Table, error) {
	if len(points) == 0 {
		return nil, analysis.ErrEmptySeries.WithContext("baseline aggregation")
	}
	if !types.IsChronological(points) {
		return nil, analysis.ErrUnsortedSeries.WithContext("baseline aggregation")
	}

	groups := make(map[int][]float64)
	for _, point := range points {
		bucket := MinuteOfWeek(point.Timestamp)
		groups[bucket] = append(groups[bucket], point.Value)
	}

	buckets := make(map[int]BucketStats, len(groups))
	for bucket, values := range groups {
		mean := arithmeticMean(values)
		buckets[bucket] = BucketStats{
			Mean:    mean,
			StdDev:  sampleStdDev(values, mean),
			Samples: len(values),
		}
	}

	logger.Debug("📊 Baseline: %d точек свернуто в %d бакетов", len(points), len(buckets))

	return &Table{buckets: buckets}, nil
}

// arithmeticMean считает среднее арифметическое
func arithmeticMean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev считает выборочное стандартное отклонение
func sampleStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)

	return math.Sqrt(variance)
}
