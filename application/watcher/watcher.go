// application/watcher/watcher.go
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"login-activity-monitor/application/pipeline"
	"login-activity-monitor/internal/adapters/ingest"
	storage "login-activity-monitor/internal/infrastructure/persistence/in_memory_storage"
	"login-activity-monitor/internal/types"
	"login-activity-monitor/pkg/logger"
)

// Watcher следит за файлом измерений в режиме watch: при каждом
// сканировании дочитывает добавленные строки и проводит их через общий
// пайплайн монитора. Усечение или замена файла распознается по
// уменьшившемуся числу строк: машина алертов перезапускается, файл
// обрабатывается заново.
type Watcher struct {
	path     string
	loader   *ingest.CSVLoader
	storage  storage.MeasurementStorage
	pipeline *pipeline.MonitorPipeline
	baseline []types.MeasurementPoint

	mu        sync.Mutex
	rowCount  int
	scans     int
	reprimes  int
	lastScan  time.Time
	lastError error
}

// NewWatcher создает наблюдателя за файлом измерений.
// baseline хранится для повторной подготовки пайплайна после усечения.
func NewWatcher(
	path string,
	loader *ingest.CSVLoader,
	measurementStorage storage.MeasurementStorage,
	monitorPipeline *pipeline.MonitorPipeline,
	baseline []types.MeasurementPoint,
) *Watcher {
	return &Watcher{
		path:     path,
		loader:   loader,
		storage:  measurementStorage,
		pipeline: monitorPipeline,
		baseline: baseline,
	}
}

// Scan перечитывает файл измерений и обрабатывает новые строки.
// Сигнатура совместима с обработчиком задачи планировщика.
func (w *Watcher) Scan(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	points, _, err := w.loader.LoadSeries(w.path)
	if err != nil {
		w.lastError = err
		return fmt.Errorf("ошибка чтения файла измерений: %w", err)
	}

	if len(points) < w.rowCount {
		logger.Warn("⚠️ [Watcher] Файл %s усечен или заменен: %d строк вместо %d, мониторинг начинается заново",
			w.path, len(points), w.rowCount)
		if err := w.pipeline.Prepare(w.baseline); err != nil {
			w.lastError = err
			return fmt.Errorf("ошибка перезапуска пайплайна: %w", err)
		}
		w.rowCount = 0
		w.reprimes++
	}

	w.scans++
	w.lastScan = time.Now()

	if len(points) == w.rowCount {
		logger.Debug("🔄 [Watcher] %s: новых строк нет (%d)", w.path, w.rowCount)
		return nil
	}

	fresh := points[w.rowCount:]
	if _, err := w.storage.StoreBatch(w.path, fresh); err != nil {
		// Хранилище вспомогательное: живой путь мониторинга важнее
		logger.Warn("⚠️ [Watcher] Точки не сохранены в хранилище: %v", err)
	}

	for i, point := range fresh {
		select {
		case <-ctx.Done():
			w.rowCount += i
			w.lastError = ctx.Err()
			return fmt.Errorf("сканирование прервано на точке %d из %d: %w", i, len(fresh), ctx.Err())
		default:
		}

		if _, err := w.pipeline.ProcessPoint(point); err != nil {
			w.rowCount += i
			w.lastError = err
			return fmt.Errorf("ошибка обработки точки %s: %w", point.Timestamp.Format("2006-01-02 15:04"), err)
		}
	}

	w.rowCount = len(points)
	w.lastError = nil

	logger.Info("📡 [Watcher] %s: обработано %d новых точек, всего строк %d",
		w.path, len(fresh), w.rowCount)

	return nil
}

// RowCount возвращает число строк, обработанных к этому моменту
func (w *Watcher) RowCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rowCount
}

// GetStats возвращает статистику наблюдателя
func (w *Watcher) GetStats() map[string]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	lastError := ""
	if w.lastError != nil {
		lastError = w.lastError.Error()
	}

	return map[string]interface{}{
		"path":       w.path,
		"row_count":  w.rowCount,
		"scans":      w.scans,
		"reprimes":   w.reprimes,
		"last_scan":  w.lastScan,
		"last_error": lastError,
	}
}
