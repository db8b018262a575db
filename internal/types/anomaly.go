// internal/types/anomaly.go
package types

import (
	"time"
)

// AnomalyType тип аномалии для одной точки ряда
type AnomalyType string

const (
	AnomalyNormal AnomalyType = "normal"
	AnomalyZero   AnomalyType = "zero"
	AnomalyLow    AnomalyType = "low"
	AnomalyHigh   AnomalyType = "high"
)

// DisplayName возвращает человекочитаемое название типа аномалии
func (t AnomalyType) DisplayName() string {
	switch t {
	case AnomalyZero:
		return "Zero Anomaly"
	case AnomalyLow:
		return "Deviation (Low)"
	case AnomalyHigh:
		return "Deviation (High)"
	default:
		return "Normal"
	}
}

// Verdict результат классификации одной точки измеренного ряда
type Verdict struct {
	Timestamp   time.Time   `json:"timestamp"`
	Value       float64     `json:"value"`
	Mean        float64     `json:"mean"`
	StdDev      float64     `json:"std_dev"`
	LowerBound  float64     `json:"lower_bound"`
	UpperBound  float64     `json:"upper_bound"`
	IsAnomaly   bool        `json:"is_anomaly"`
	AnomalyType AnomalyType `json:"anomaly_type"`
}
