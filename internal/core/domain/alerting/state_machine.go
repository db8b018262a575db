// internal/core/domain/alerting/state_machine.go
package alerting

import (
	"time"

	"login-activity-monitor/internal/types"
	"login-activity-monitor/internal/types/analysis"
	"login-activity-monitor/pkg/logger"
)

// StateMachine - машина состояний алертов с дебаунсом по стрику.
// Однопроходная и однопоточная: вердикты подаются строго в порядке меток
// времени, переходы Inactive <-> Active происходят только после threshold
// одинаковых вердиктов подряд. Алерт никогда не стартует повторно из
// Active и не резолвится из Inactive.
type StateMachine struct {
	threshold int
	state     AlertState
	window    *lookbackWindow
	processed int
}

// NewStateMachine создает машину в состоянии Inactive с нулевыми стриками
func NewStateMachine(threshold int) *StateMachine {
	if threshold < 1 {
		threshold = DefaultConsecutiveMinutes
	}
	return &StateMachine{
		threshold: threshold,
		window:    newLookbackWindow(threshold),
	}
}

// Process обрабатывает очередной вердикт и возвращает событие алерта,
// если произошел переход состояния, иначе nil
func (m *StateMachine) Process(verdict types.Verdict) *types.AlertEvent {
	m.window.Push(verdict)
	m.processed++

	if verdict.IsAnomaly {
		m.state.AnomalyStreak++
		m.state.NormalStreak = 0
		if !m.state.Active && m.state.AnomalyStreak >= m.threshold {
			return m.raise(verdict)
		}
		return nil
	}

	m.state.NormalStreak++
	m.state.AnomalyStreak = 0
	if m.state.Active && m.state.NormalStreak >= m.threshold {
		return m.resolve(verdict)
	}
	return nil
}

// Finish завершает проход по ряду. Если алерт к этому моменту активен,
// возвращает единственное событие still_active со стартовой информацией:
// резолюция по окончании ряда не утверждается.
func (m *StateMachine) Finish() *types.AlertEvent {
	if !m.state.Active {
		return nil
	}

	event := &types.AlertEvent{
		Kind:        types.AlertKindStillActive,
		AlertStart:  m.state.AlertStart,
		InitialType: m.state.InitialType,
	}
	if last, ok := m.window.At(0); ok {
		event.DetectedAt = last.Timestamp
	}
	return event
}

// State возвращает снапшот текущего состояния машины
func (m *StateMachine) State() AlertState {
	return m.state
}

// Threshold возвращает порог дебаунса машины
func (m *StateMachine) Threshold() int {
	return m.threshold
}

// raise переводит машину в Active. Оценка начала алерта - не точка, где
// порог был пересечен, а первая точка квалифицирующего стрика.
func (m *StateMachine) raise(current types.Verdict) *types.AlertEvent {
	origin, err := m.lookback()
	if err != nil {
		m.forceReset(err)
		return nil
	}

	m.state.Active = true
	m.state.AlertStart = origin.Timestamp
	m.state.InitialType = origin.AnomalyType

	return &types.AlertEvent{
		Kind:           types.AlertKindStarted,
		DetectedAt:     current.Timestamp,
		EstimatedStart: origin.Timestamp,
		InitialType:    origin.AnomalyType,
		InitialValue:   origin.Value,
		CurrentValue:   current.Value,
		CurrentMean:    current.Mean,
		CurrentUpper:   current.UpperBound,
		CurrentLower:   current.LowerBound,
	}
}

// resolve переводит машину в Inactive. Событие несет исходное начало
// алерта для корреляции, после чего стартовая информация очищается.
func (m *StateMachine) resolve(current types.Verdict) *types.AlertEvent {
	origin, err := m.lookback()
	if err != nil {
		m.forceReset(err)
		return nil
	}

	event := &types.AlertEvent{
		Kind:             types.AlertKindResolved,
		DetectedAt:       current.Timestamp,
		EstimatedResolve: origin.Timestamp,
		AlertStart:       m.state.AlertStart,
		InitialType:      m.state.InitialType,
		CurrentValue:     current.Value,
		CurrentMean:      current.Mean,
	}

	m.state.Active = false
	m.state.AlertStart = time.Time{}
	m.state.InitialType = ""

	return event
}

// lookback возвращает первую точку квалифицирующего стрика: вердикт на
// расстоянии threshold-1 от текущего. Если удержано меньше вердиктов,
// берется самый старый - обрезка к началу ряда.
func (m *StateMachine) lookback() (types.Verdict, error) {
	if verdict, ok := m.window.At(m.threshold - 1); ok {
		return verdict, nil
	}
	if verdict, ok := m.window.Oldest(); ok {
		return verdict, nil
	}
	return types.Verdict{}, analysis.ErrLookbackEmpty
}

// forceReset сбрасывает машину в Inactive после несогласованности отката.
// Провенанс текущего алерта теряется, зато последующие переходы остаются
// корректными; пайплайн продолжает работу.
func (m *StateMachine) forceReset(err error) {
	logger.Warn("⚠️ Машина алертов: несогласованность отката (%v), принудительный сброс состояния", err)
	m.state = AlertState{}
}
