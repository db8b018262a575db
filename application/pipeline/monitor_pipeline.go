// application/pipeline/monitor_pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"login-activity-monitor/internal/config"
	"login-activity-monitor/internal/core/domain/alerting"
	"login-activity-monitor/internal/core/domain/baseline"
	"login-activity-monitor/internal/core/domain/detection"
	"login-activity-monitor/internal/types"
	"login-activity-monitor/internal/types/analysis"
	"login-activity-monitor/pkg/logger"
)

// MonitorPipeline проводит измеренный ряд через ядро монитора:
// классификатор аномалий и машину состояний алертов. События алертов
// публикуются в шину синхронно, чтобы сохранить их порядок; события
// аномалий - асинхронно.
type MonitorPipeline struct {
	config     *config.Config
	aggregator *baseline.Aggregator
	classifier *detection.Classifier
	machine    *alerting.StateMachine
	eventBus   types.EventBus

	mu            sync.Mutex
	table         *baseline.Table
	summary       RunSummary
	publishErrors int
	startedAt     time.Time
	finished      bool
}

// NewMonitorPipeline создает пайплайн мониторинга
func NewMonitorPipeline(cfg *config.Config, eventBus types.EventBus) *MonitorPipeline {
	return &MonitorPipeline{
		config:     cfg,
		aggregator: baseline.NewAggregator(),
		classifier: detection.NewClassifier(detection.Config{
			StdDevThreshold:       cfg.StdDevThreshold,
			BaselineZeroThreshold: cfg.BaselineZeroThreshold,
			StdDevEpsilon:         cfg.StdDevEpsilon,
		}),
		machine:  alerting.NewStateMachine(cfg.ConsecutiveMinutes),
		eventBus: eventBus,
	}
}

// Prepare строит таблицу базовой линии и сбрасывает машину алертов.
// Повторный вызов начинает новый прогон с чистым состоянием.
func (p *MonitorPipeline) Prepare(baselinePoints []types.MeasurementPoint) error {
	table, err := p.aggregator.Compute(baselinePoints)
	if err != nil {
		return fmt.Errorf("ошибка подготовки базовой линии: %w", err)
	}

	p.mu.Lock()
	p.table = table
	p.machine = alerting.NewStateMachine(p.config.ConsecutiveMinutes)
	p.summary = RunSummary{}
	p.publishErrors = 0
	p.startedAt = time.Now()
	p.finished = false
	p.mu.Unlock()

	logger.Info("📊 [Pipeline] Базовая линия готова: %d бакетов из %d точек",
		table.Size(), len(baselinePoints))

	return nil
}

// Prepared сообщает, построена ли базовая линия
func (p *MonitorPipeline) Prepared() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.table != nil
}

// ProcessPoint классифицирует одну точку и проводит вердикт через машину
// алертов. Событие алерта, если машина его выдала, публикуется до
// возврата - порядок событий совпадает с порядком точек.
func (p *MonitorPipeline) ProcessPoint(point types.MeasurementPoint) (types.Verdict, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.table == nil {
		return types.Verdict{}, analysis.NewDataError("базовая линия не подготовлена, сначала вызовите Prepare")
	}
	if p.finished {
		return types.Verdict{}, analysis.NewDataError("прогон уже завершен, вызовите Prepare для нового")
	}

	verdict := p.classifier.ClassifyPoint(point, p.table)
	p.summary.PointsProcessed++

	if verdict.IsAnomaly {
		p.summary.Anomalies++
		p.publishAnomaly(verdict)
	}

	if event := p.machine.Process(verdict); event != nil {
		p.recordAlert(*event)
		p.publishAlert(*event)
	}

	return verdict, nil
}

// Run прогоняет весь измеренный ряд через монитор и завершает прогон.
// Между точками проверяется отмена контекста.
func (p *MonitorPipeline) Run(ctx context.Context, measured []types.MeasurementPoint) (*RunSummary, error) {
	if len(measured) == 0 {
		return nil, analysis.ErrEmptySeries.WithContext("measured series")
	}
	if !types.IsChronological(measured) {
		return nil, analysis.ErrUnsortedSeries.WithContext("measured series")
	}

	logger.Info("🚀 [Pipeline] Прогон измеренного ряда: %d точек", len(measured))

	for i, point := range measured {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("прогон прерван на точке %d из %d: %w", i, len(measured), ctx.Err())
		default:
		}

		if _, err := p.ProcessPoint(point); err != nil {
			return nil, err
		}
	}

	p.Finish()

	summary := p.Summary()
	logger.Info("✅ [Pipeline] Прогон завершен за %v: %d точек, %d аномалий, %d алертов",
		summary.Elapsed, summary.PointsProcessed, summary.Anomalies, summary.AlertsStarted)

	return &summary, nil
}

// Finish завершает прогон: если алерт еще активен, машина выдает
// финальное событие still_active. Повторные вызовы игнорируются.
func (p *MonitorPipeline) Finish() *types.AlertEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished || p.table == nil {
		return nil
	}
	p.finished = true

	event := p.machine.Finish()
	if event != nil {
		p.recordAlert(*event)
		p.publishAlert(*event)
	}

	p.summary.Elapsed = time.Since(p.startedAt)
	return event
}

// Summary возвращает снапшот итогов текущего прогона
func (p *MonitorPipeline) Summary() RunSummary {
	p.mu.Lock()
	defer p.mu.Unlock()

	summary := p.summary
	if !p.finished && !p.startedAt.IsZero() {
		summary.Elapsed = time.Since(p.startedAt)
	}
	return summary
}

// GetStats возвращает статистику пайплайна
func (p *MonitorPipeline) GetStats() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	buckets := 0
	if p.table != nil {
		buckets = p.table.Size()
	}

	return map[string]interface{}{
		"points_processed": p.summary.PointsProcessed,
		"anomalies":        p.summary.Anomalies,
		"alerts_started":   p.summary.AlertsStarted,
		"alerts_resolved":  p.summary.AlertsResolved,
		"still_active":     p.summary.StillActive,
		"alert_active":     p.machine.State().Active,
		"baseline_buckets": buckets,
		"publish_errors":   p.publishErrors,
		"finished":         p.finished,
	}
}

// recordAlert обновляет счетчики итогов по событию машины.
// Вызывается под p.mu.
func (p *MonitorPipeline) recordAlert(event types.AlertEvent) {
	switch event.Kind {
	case types.AlertKindStarted:
		p.summary.AlertsStarted++
	case types.AlertKindResolved:
		p.summary.AlertsResolved++
	case types.AlertKindStillActive:
		p.summary.StillActive = true
	}
}

// publishAlert синхронно публикует событие алерта в шину.
// Вызывается под p.mu: это сохраняет порядок started/resolved.
func (p *MonitorPipeline) publishAlert(event types.AlertEvent) {
	busEvent := types.Event{
		Type:   types.AlertEventType(event.Kind),
		Source: "monitor_pipeline",
		Data:   event,
		Metadata: types.Metadata{
			CorrelationID: correlationID(event),
			Priority:      alertPriority(event.Kind),
			Tags:          []string{"alert", string(event.Kind)},
		},
	}

	if err := p.eventBus.PublishSync(busEvent); err != nil {
		p.publishErrors++
		logger.Error("❌ [Pipeline] Ошибка публикации события %s: %v", event.Kind, err)
	}
}

// publishAnomaly асинхронно публикует событие аномалии.
// Переполненный буфер шины не считается фатальным.
func (p *MonitorPipeline) publishAnomaly(verdict types.Verdict) {
	err := p.eventBus.Publish(types.Event{
		Type:   types.EventAnomalyDetected,
		Source: "monitor_pipeline",
		Data:   verdict,
		Metadata: types.Metadata{
			Priority: 3,
			Tags:     []string{"anomaly", string(verdict.AnomalyType)},
		},
	})
	if err != nil {
		p.publishErrors++
		logger.Debug("⚠️ [Pipeline] Событие аномалии не опубликовано: %v", err)
	}
}

// correlationID связывает события одного алерта временем его начала
func correlationID(event types.AlertEvent) string {
	start := event.AlertStart
	if event.Kind == types.AlertKindStarted {
		start = event.EstimatedStart
	}
	if start.IsZero() {
		return ""
	}
	return start.UTC().Format(time.RFC3339)
}

// alertPriority возвращает приоритет события алерта для шины
func alertPriority(kind types.AlertEventKind) int {
	switch kind {
	case types.AlertKindStarted:
		return 8
	case types.AlertKindStillActive:
		return 7
	case types.AlertKindResolved:
		return 5
	default:
		return 1
	}
}
