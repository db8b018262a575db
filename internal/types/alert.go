// internal/types/alert.go
package types

import (
	"time"
)

// AlertEventKind вид события алерта
type AlertEventKind string

const (
	AlertKindStarted     AlertEventKind = "started"
	AlertKindResolved    AlertEventKind = "resolved"
	AlertKindStillActive AlertEventKind = "still_active"
)

// AlertEvent событие машины состояний алертов.
// Заполненные поля зависят от Kind: started несет оценку начала и границы,
// resolved - оценку окончания и исходное начало, still_active - только начало.
type AlertEvent struct {
	Kind             AlertEventKind `json:"kind"`
	DetectedAt       time.Time      `json:"detected_at"`
	EstimatedStart   time.Time      `json:"estimated_start,omitempty"`
	EstimatedResolve time.Time      `json:"estimated_resolve,omitempty"`
	AlertStart       time.Time      `json:"alert_start,omitempty"` // исходное начало для resolved/still_active
	InitialType      AnomalyType    `json:"initial_type,omitempty"`
	InitialValue     float64        `json:"initial_value,omitempty"`
	CurrentValue     float64        `json:"current_value,omitempty"`
	CurrentMean      float64        `json:"current_mean,omitempty"`
	CurrentUpper     float64        `json:"current_upper,omitempty"`
	CurrentLower     float64        `json:"current_lower,omitempty"`
}

// NotificationService интерфейс сервиса уведомлений
type NotificationService interface {
	Send(event AlertEvent) error
	SendBatch(events []AlertEvent) error
	SetEnabled(enabled bool)
	IsEnabled() bool
	GetStats() map[string]interface{}
}
