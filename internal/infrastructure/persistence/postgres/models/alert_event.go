// internal/infrastructure/persistence/postgres/models/alert_event.go
package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"login-activity-monitor/internal/types"
)

// AlertEventRecord строка таблицы alert_events
type AlertEventRecord struct {
	ID               string       `db:"id" json:"id"`
	Kind             string       `db:"kind" json:"kind"`
	DetectedAt       time.Time    `db:"detected_at" json:"detected_at"`
	EstimatedStart   sql.NullTime `db:"estimated_start" json:"estimated_start,omitempty"`
	EstimatedResolve sql.NullTime `db:"estimated_resolve" json:"estimated_resolve,omitempty"`
	AlertStart       sql.NullTime `db:"alert_start" json:"alert_start,omitempty"`
	InitialType      string       `db:"initial_type" json:"initial_type"`
	InitialValue     float64      `db:"initial_value" json:"initial_value"`
	CurrentValue     float64      `db:"current_value" json:"current_value"`
	CurrentMean      float64      `db:"current_mean" json:"current_mean"`
	CurrentUpper     float64      `db:"current_upper" json:"current_upper"`
	CurrentLower     float64      `db:"current_lower" json:"current_lower"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
}

// NewAlertEventRecord конвертирует доменное событие в строку таблицы
func NewAlertEventRecord(event types.AlertEvent) *AlertEventRecord {
	return &AlertEventRecord{
		ID:               uuid.New().String(),
		Kind:             string(event.Kind),
		DetectedAt:       event.DetectedAt,
		EstimatedStart:   getNullTime(event.EstimatedStart),
		EstimatedResolve: getNullTime(event.EstimatedResolve),
		AlertStart:       getNullTime(event.AlertStart),
		InitialType:      string(event.InitialType),
		InitialValue:     event.InitialValue,
		CurrentValue:     event.CurrentValue,
		CurrentMean:      event.CurrentMean,
		CurrentUpper:     event.CurrentUpper,
		CurrentLower:     event.CurrentLower,
	}
}

// ToAlertEvent восстанавливает доменное событие из строки таблицы
func (r *AlertEventRecord) ToAlertEvent() types.AlertEvent {
	return types.AlertEvent{
		Kind:             types.AlertEventKind(r.Kind),
		DetectedAt:       r.DetectedAt,
		EstimatedStart:   timeFromNull(r.EstimatedStart),
		EstimatedResolve: timeFromNull(r.EstimatedResolve),
		AlertStart:       timeFromNull(r.AlertStart),
		InitialType:      types.AnomalyType(r.InitialType),
		InitialValue:     r.InitialValue,
		CurrentValue:     r.CurrentValue,
		CurrentMean:      r.CurrentMean,
		CurrentUpper:     r.CurrentUpper,
		CurrentLower:     r.CurrentLower,
	}
}

func getNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func timeFromNull(nt sql.NullTime) time.Time {
	if !nt.Valid {
		return time.Time{}
	}
	return nt.Time
}
