// application/pipeline/monitor_pipeline_test.go
package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"login-activity-monitor/internal/config"
	"login-activity-monitor/internal/types"
	"login-activity-monitor/internal/types/analysis"
)

// mondayNine - понедельник 09:00 UTC, опорная точка измеренного ряда
var mondayNine = time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		StdDevThreshold:       3,
		ConsecutiveMinutes:    10,
		BaselineZeroThreshold: 200,
		StdDevEpsilon:         1e-6,
	}
}

// captureBus собирает опубликованные события вместо реальной шины
type captureBus struct {
	mu          sync.Mutex
	syncEvents  []types.Event
	asyncEvents []types.Event
	failSync    bool
}

func (b *captureBus) Publish(event types.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.asyncEvents = append(b.asyncEvents, event)
	return nil
}

func (b *captureBus) PublishSync(event types.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSync {
		return errors.New("шина недоступна")
	}
	b.syncEvents = append(b.syncEvents, event)
	return nil
}

func (b *captureBus) Subscribe(eventType types.EventType, subscriber types.EventSubscriber)   {}
func (b *captureBus) Unsubscribe(eventType types.EventType, subscriber types.EventSubscriber) {}
func (b *captureBus) Start()                                                                  {}
func (b *captureBus) Stop()                                                                   {}
func (b *captureBus) GetMetrics() types.EventBusMetrics                                       { return types.EventBusMetrics{} }

func (b *captureBus) alertEvents(t *testing.T) []types.AlertEvent {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	events := make([]types.AlertEvent, 0, len(b.syncEvents))
	for _, event := range b.syncEvents {
		payload, ok := event.Data.(types.AlertEvent)
		require.True(t, ok, "в синхронном событии ожидается AlertEvent, получен %T", event.Data)
		events = append(events, payload)
	}
	return events
}

// baselineWeeks строит базовый ряд: по одному значению на минуту для
// каждой из недель, завершающихся перед mondayNine
func baselineWeeks(minutes int, weekValues ...float64) []types.MeasurementPoint {
	points := make([]types.MeasurementPoint, 0, minutes*len(weekValues))
	for w, value := range weekValues {
		weekStart := mondayNine.AddDate(0, 0, -7*(len(weekValues)-w))
		for m := 0; m < minutes; m++ {
			points = append(points, types.MeasurementPoint{
				Timestamp: weekStart.Add(time.Duration(m) * time.Minute),
				Value:     value,
			})
		}
	}
	return points
}

// measuredChunk строит отрезок измеренного ряда со сдвигом в минутах
func measuredChunk(startOffset, count int, value float64) []types.MeasurementPoint {
	points := make([]types.MeasurementPoint, 0, count)
	for m := 0; m < count; m++ {
		points = append(points, types.MeasurementPoint{
			Timestamp: mondayNine.Add(time.Duration(startOffset+m) * time.Minute),
			Value:     value,
		})
	}
	return points
}

func preparedPipeline(t *testing.T, bus *captureBus, baselinePoints []types.MeasurementPoint) *MonitorPipeline {
	t.Helper()
	p := NewMonitorPipeline(testConfig(), bus)
	require.NoError(t, p.Prepare(baselinePoints))
	return p
}

func TestRun_TenHighMinutesRaiseOneAlert(t *testing.T) {
	bus := &captureBus{}
	// Бакеты со средним 100 и сигмой 5: коридор [85, 115]
	p := preparedPipeline(t, bus, baselineWeeks(10, 95, 100, 105))

	summary, err := p.Run(context.Background(), measuredChunk(0, 10, 200))

	require.NoError(t, err)
	assert.Equal(t, 10, summary.PointsProcessed)
	assert.Equal(t, 10, summary.Anomalies)
	assert.Equal(t, 1, summary.AlertsStarted)
	assert.Equal(t, 0, summary.AlertsResolved)
	assert.True(t, summary.StillActive)

	events := bus.alertEvents(t)
	require.Len(t, events, 2)

	started := events[0]
	assert.Equal(t, types.AlertKindStarted, started.Kind)
	assert.Equal(t, types.AnomalyHigh, started.InitialType)
	assert.Equal(t, mondayNine, started.EstimatedStart, "оценка начала - первая точка стрика")
	assert.Equal(t, mondayNine.Add(9*time.Minute), started.DetectedAt)
	assert.InDelta(t, 100.0, started.CurrentMean, 1e-9)
	assert.InDelta(t, 115.0, started.CurrentUpper, 1e-9)
	assert.InDelta(t, 85.0, started.CurrentLower, 1e-9)

	assert.Equal(t, types.AlertKindStillActive, events[1].Kind)
	assert.Equal(t, mondayNine, events[1].AlertStart)
}

func TestRun_TenZeroMinutesRaiseZeroAlert(t *testing.T) {
	bus := &captureBus{}
	// Среднее 300 выше порога пропадания трафика
	p := preparedPipeline(t, bus, baselineWeeks(10, 295, 300, 305))

	summary, err := p.Run(context.Background(), measuredChunk(0, 10, 0))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertsStarted)

	events := bus.alertEvents(t)
	require.NotEmpty(t, events)
	assert.Equal(t, types.AlertKindStarted, events[0].Kind)
	assert.Equal(t, types.AnomalyZero, events[0].InitialType)
}

func TestRun_AlertResolvesAfterNormalStreak(t *testing.T) {
	bus := &captureBus{}
	p := preparedPipeline(t, bus, baselineWeeks(20, 95, 100, 105))

	series := append(measuredChunk(0, 10, 200), measuredChunk(10, 10, 100)...)
	summary, err := p.Run(context.Background(), series)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertsStarted)
	assert.Equal(t, 1, summary.AlertsResolved)
	assert.False(t, summary.StillActive)

	events := bus.alertEvents(t)
	require.Len(t, events, 2)

	resolved := events[1]
	assert.Equal(t, types.AlertKindResolved, resolved.Kind)
	assert.Equal(t, events[0].EstimatedStart, resolved.AlertStart,
		"резолв несет исходное начало алерта")
	assert.Equal(t, mondayNine.Add(10*time.Minute), resolved.EstimatedResolve)
	assert.Equal(t, types.AnomalyHigh, resolved.InitialType)
}

func TestRun_AnomalyInterruptsResolveStreak(t *testing.T) {
	bus := &captureBus{}
	p := preparedPipeline(t, bus, baselineWeeks(30, 95, 100, 105))

	series := append(measuredChunk(0, 10, 200), measuredChunk(10, 9, 100)...)
	series = append(series, measuredChunk(19, 1, 200)...)
	series = append(series, measuredChunk(20, 9, 100)...)

	summary, err := p.Run(context.Background(), series)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertsStarted)
	assert.Equal(t, 0, summary.AlertsResolved, "прерванный стрик нормы не резолвит алерт")
	assert.True(t, summary.StillActive)
}

func TestRun_BaselineAgainstItselfIsQuiet(t *testing.T) {
	bus := &captureBus{}
	baselinePoints := baselineWeeks(60, 100, 110)
	p := preparedPipeline(t, bus, baselinePoints)

	summary, err := p.Run(context.Background(), baselinePoints)

	require.NoError(t, err)
	assert.Equal(t, 120, summary.PointsProcessed)
	assert.Equal(t, 0, summary.Anomalies)
	assert.Equal(t, 0, summary.AlertsStarted)
	assert.Empty(t, bus.alertEvents(t))
}

func TestRun_PublishesAnomalyEventPerAnomalousVerdict(t *testing.T) {
	bus := &captureBus{}
	p := preparedPipeline(t, bus, baselineWeeks(10, 95, 100, 105))

	_, err := p.Run(context.Background(), measuredChunk(0, 10, 200))

	require.NoError(t, err)
	require.Len(t, bus.asyncEvents, 10)
	for _, event := range bus.asyncEvents {
		assert.Equal(t, types.EventAnomalyDetected, event.Type)
		verdict, ok := event.Data.(types.Verdict)
		require.True(t, ok)
		assert.True(t, verdict.IsAnomaly)
		assert.Equal(t, types.AnomalyHigh, verdict.AnomalyType)
	}
}

func TestRun_AlertEventsShareCorrelationID(t *testing.T) {
	bus := &captureBus{}
	p := preparedPipeline(t, bus, baselineWeeks(10, 95, 100, 105))

	_, err := p.Run(context.Background(), measuredChunk(0, 10, 200))

	require.NoError(t, err)
	require.Len(t, bus.syncEvents, 2)
	correlation := bus.syncEvents[0].Metadata.CorrelationID
	assert.NotEmpty(t, correlation)
	assert.Equal(t, correlation, bus.syncEvents[1].Metadata.CorrelationID)
}

func TestProcessPoint_RequiresPreparedBaseline(t *testing.T) {
	p := NewMonitorPipeline(testConfig(), &captureBus{})

	_, err := p.ProcessPoint(types.MeasurementPoint{Timestamp: mondayNine, Value: 100})

	require.Error(t, err)
	assert.True(t, analysis.IsDataError(err))
}

func TestProcessPoint_RejectedAfterFinish(t *testing.T) {
	bus := &captureBus{}
	p := preparedPipeline(t, bus, baselineWeeks(10, 95, 100, 105))
	p.Finish()

	_, err := p.ProcessPoint(types.MeasurementPoint{Timestamp: mondayNine, Value: 100})

	require.Error(t, err)
	assert.True(t, analysis.IsDataError(err))
}

func TestRun_RejectsEmptySeries(t *testing.T) {
	p := preparedPipeline(t, &captureBus{}, baselineWeeks(10, 95, 100, 105))

	_, err := p.Run(context.Background(), nil)

	require.Error(t, err)
	assert.True(t, analysis.IsDataError(err))
}

func TestRun_RejectsUnsortedSeries(t *testing.T) {
	p := preparedPipeline(t, &captureBus{}, baselineWeeks(10, 95, 100, 105))

	series := []types.MeasurementPoint{
		{Timestamp: mondayNine.Add(time.Minute), Value: 100},
		{Timestamp: mondayNine, Value: 100},
	}
	_, err := p.Run(context.Background(), series)

	require.Error(t, err)
	assert.True(t, analysis.IsDataError(err))
}

func TestRun_HonorsContextCancellation(t *testing.T) {
	p := preparedPipeline(t, &captureBus{}, baselineWeeks(10, 95, 100, 105))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, measuredChunk(0, 10, 100))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrepare_ResetsPreviousRun(t *testing.T) {
	bus := &captureBus{}
	baselinePoints := baselineWeeks(10, 95, 100, 105)
	p := preparedPipeline(t, bus, baselinePoints)

	_, err := p.Run(context.Background(), measuredChunk(0, 10, 200))
	require.NoError(t, err)

	require.NoError(t, p.Prepare(baselinePoints))

	summary := p.Summary()
	assert.Equal(t, 0, summary.PointsProcessed)
	assert.False(t, summary.StillActive)

	_, err = p.ProcessPoint(types.MeasurementPoint{Timestamp: mondayNine, Value: 100})
	assert.NoError(t, err, "после повторного Prepare пайплайн принимает точки")
}

func TestRun_ContinuesWhenBusFails(t *testing.T) {
	bus := &captureBus{failSync: true}
	p := preparedPipeline(t, bus, baselineWeeks(10, 95, 100, 105))

	summary, err := p.Run(context.Background(), measuredChunk(0, 10, 200))

	require.NoError(t, err, "отказ шины не прерывает прогон")
	assert.Equal(t, 1, summary.AlertsStarted)

	stats := p.GetStats()
	assert.GreaterOrEqual(t, stats["publish_errors"].(int), 1)
}

func TestGetStats_ReflectsRunState(t *testing.T) {
	bus := &captureBus{}
	p := preparedPipeline(t, bus, baselineWeeks(10, 95, 100, 105))

	_, err := p.Run(context.Background(), measuredChunk(0, 10, 200))
	require.NoError(t, err)

	stats := p.GetStats()
	assert.Equal(t, 10, stats["points_processed"])
	assert.Equal(t, 10, stats["baseline_buckets"])
	assert.Equal(t, 1, stats["alerts_started"])
	assert.Equal(t, true, stats["still_active"])
	assert.Equal(t, true, stats["finished"])
}
