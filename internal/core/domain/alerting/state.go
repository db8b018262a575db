// internal/core/domain/alerting/state.go
package alerting

import (
	"time"

	"login-activity-monitor/internal/types"
)

// DefaultConsecutiveMinutes порог дебаунса по умолчанию: столько
// одинаковых вердиктов подряд нужно для перехода состояния
const DefaultConsecutiveMinutes = 10

// AlertState - явное состояние машины алертов. Значение принадлежит одной
// машине и мутируется ровно один раз на обработанный вердикт; между
// запусками не сохраняется.
type AlertState struct {
	Active        bool              `json:"active"`
	AnomalyStreak int               `json:"anomaly_streak"`
	NormalStreak  int               `json:"normal_streak"`
	AlertStart    time.Time         `json:"alert_start"`  // нулевое время, пока алерт неактивен
	InitialType   types.AnomalyType `json:"initial_type"` // пусто, пока алерт неактивен
}
