// internal/core/domain/detection/classifier.go
package detection

import (
	"math"

	"login-activity-monitor/internal/core/domain/baseline"
	"login-activity-monitor/internal/types"
	"login-activity-monitor/internal/types/analysis"
	"login-activity-monitor/pkg/logger"
)

// Classifier - классификатор аномалий: сопоставляет точку измеренного ряда
// со статистикой ее бакета и выносит вердикт
type Classifier struct {
	config Config
}

// NewClassifier создает новый классификатор
func NewClassifier(config Config) *Classifier {
	return &Classifier{config: config}
}

// ClassifyPoint выносит вердикт по одной точке. Результат зависит только от
// значения точки и статистики ее бакета, порядок обработки роли не играет.
//
// Приоритет типов: Zero > Low > High > Normal. Полное пропадание трафика
// (значение 0 при базовом среднем не ниже порога) важнее факта выхода за
// границы, поэтому проверяется первым.
func (c *Classifier) ClassifyPoint(point types.MeasurementPoint, table *baseline.Table) types.Verdict {
	mean, stdDev := table.Lookup(baseline.MinuteOfWeek(point.Timestamp))

	upper := mean + c.config.StdDevThreshold*stdDev
	lower := math.Max(0, mean-c.config.StdDevThreshold*stdDev)

	verdict := types.Verdict{
		Timestamp:   point.Timestamp,
		Value:       point.Value,
		Mean:        mean,
		StdDev:      stdDev,
		LowerBound:  lower,
		UpperBound:  upper,
		AnomalyType: types.AnomalyNormal,
	}

	// Бакеты без наблюдаемого разброса не дают отклонений: при stddev около
	// нуля любое отличие от среднего выглядело бы как "бесконечная сигма"
	deviation := (point.Value < lower || point.Value > upper) && stdDev > c.config.StdDevEpsilon
	zero := point.Value == 0 && mean >= c.config.BaselineZeroThreshold

	switch {
	case zero:
		verdict.IsAnomaly = true
		verdict.AnomalyType = types.AnomalyZero
	case deviation && point.Value < lower:
		verdict.IsAnomaly = true
		verdict.AnomalyType = types.AnomalyLow
	case deviation:
		verdict.IsAnomaly = true
		verdict.AnomalyType = types.AnomalyHigh
	}

	return verdict
}

// ClassifySeries выносит вердикты по всему ряду, по одному на точку,
// с сохранением порядка. Пустой ряд или пустая базовая линия - нарушение
// контракта входных данных.
func (c *Classifier) ClassifySeries(points []types.MeasurementPoint, table *baseline.Table) ([]types.Verdict, error) {
	if len(points) == 0 {
		return nil, analysis.ErrEmptySeries.WithContext("anomaly classification")
	}
	if table == nil || table.IsEmpty() {
		return nil, analysis.ErrEmptyBaseline.WithContext("anomaly classification")
	}
	if !types.IsChronological(points) {
		return nil, analysis.ErrUnsortedSeries.WithContext("anomaly classification")
	}

	verdicts := make([]types.Verdict, 0, len(points))
	anomalies := 0
	for _, point := range points {
		verdict := c.ClassifyPoint(point, table)
		if verdict.IsAnomaly {
			anomalies++
		}
		verdicts = append(verdicts, verdict)
	}

	logger.Debug("🔍 Классификация: %d точек, %d аномалий", len(verdicts), anomalies)

	return verdicts, nil
}
