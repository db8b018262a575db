// internal/infrastructure/persistence/in_memory_storage/storage.go
package storage

import (
	"container/list"
	"sort"
	"sync"
	"time"

	"login-activity-monitor/internal/types"
)

// InMemoryMeasurementStorage реализация in-memory хранилища измерений
type InMemoryMeasurementStorage struct {
	mu sync.RWMutex

	// Последняя точка каждого источника
	latest map[string]types.MeasurementPoint

	// История точек (двусторонний список для каждого источника)
	history map[string]*list.List

	// Статистика
	stats StorageStats

	// Подписки
	subscriptions *SubscriptionManager

	// Конфигурация
	config *StorageConfig
}

// NewInMemoryMeasurementStorage создает новое in-memory хранилище.
// Фоновую очистку хранилище само не запускает, этим управляет фабрика.
func NewInMemoryMeasurementStorage(config *StorageConfig) *InMemoryMeasurementStorage {
	if config == nil {
		config = &StorageConfig{
			MaxPointsPerSource: 20160,
			MaxSources:         16,
			CleanupInterval:    5 * time.Minute,
			RetentionPeriod:    15 * 24 * time.Hour,
		}
	}

	return &InMemoryMeasurementStorage{
		latest:        make(map[string]types.MeasurementPoint),
		history:       make(map[string]*list.List),
		subscriptions: NewSubscriptionManager(),
		config:        config,
	}
}

// StorePoint сохраняет одну точку измерения
func (s *InMemoryMeasurementStorage) StorePoint(source string, point types.MeasurementPoint) error {
	s.mu.Lock()

	if err := s.storeLocked(source, point); err != nil {
		s.mu.Unlock()
		return err
	}

	s.updateStats()
	s.mu.Unlock()

	// Уведомляем подписчиков вне блокировки
	s.subscriptions.NotifyAll(source, point)

	return nil
}

// StoreBatch сохраняет пачку точек и возвращает число принятых
func (s *InMemoryMeasurementStorage) StoreBatch(source string, points []types.MeasurementPoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	s.mu.Lock()

	stored := 0
	for _, point := range points {
		if err := s.storeLocked(source, point); err != nil {
			s.updateStats()
			s.mu.Unlock()
			return stored, err
		}
		stored++
	}

	s.updateStats()
	last := s.latest[source]
	s.mu.Unlock()

	// Для пачки уведомляем только о последней точке
	s.subscriptions.NotifyAll(source, last)

	return stored, nil
}

// storeLocked выполняет запись под уже взятой блокировкой
func (s *InMemoryMeasurementStorage) storeLocked(source string, point types.MeasurementPoint) error {
	if _, exists := s.latest[source]; !exists && len(s.latest) >= s.config.MaxSources {
		return ErrStorageFull
	}

	s.latest[source] = point

	historyList, exists := s.history[source]
	if !exists {
		historyList = list.New()
		s.history[source] = historyList
	}

	historyList.PushBack(point)

	// Ограничиваем глубину истории
	if s.config.MaxPointsPerSource > 0 && historyList.Len() > s.config.MaxPointsPerSource {
		if front := historyList.Front(); front != nil {
			historyList.Remove(front)
		}
	}

	return nil
}

// GetLatest возвращает последнюю точку источника
func (s *InMemoryMeasurementStorage) GetLatest(source string) (types.MeasurementPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	point, exists := s.latest[source]
	return point, exists
}

// GetSources возвращает все источники в отсортированном порядке
func (s *InMemoryMeasurementStorage) GetSources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources := make([]string, 0, len(s.latest))
	for source := range s.latest {
		sources = append(sources, source)
	}

	sort.Strings(sources)
	return sources
}

// SourceExists проверяет существование источника
func (s *InMemoryMeasurementStorage) SourceExists(source string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.latest[source]
	return exists
}

// GetHistory возвращает последние limit точек источника в хронологическом порядке
func (s *InMemoryMeasurementStorage) GetHistory(source string, limit int) ([]types.MeasurementPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	historyList, exists := s.history[source]
	if !exists {
		return nil, ErrSourceNotFound
	}

	if limit <= 0 || limit > historyList.Len() {
		limit = historyList.Len()
	}

	result := make([]types.MeasurementPoint, 0, limit)

	// Идем с конца (последние точки)
	element := historyList.Back()
	for i := 0; i < limit && element != nil; i++ {
		if point, ok := element.Value.(types.MeasurementPoint); ok {
			result = append(result, point)
		}
		element = element.Prev()
	}

	// Разворачиваем в порядок старые -> новые
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result, nil
}

// GetHistoryRange возвращает точки в интервале [start, end]
func (s *InMemoryMeasurementStorage) GetHistoryRange(source string, start, end time.Time) ([]types.MeasurementPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	historyList, exists := s.history[source]
	if !exists {
		return nil, ErrSourceNotFound
	}

	var result []types.MeasurementPoint
	for element := historyList.Front(); element != nil; element = element.Next() {
		if point, ok := element.Value.(types.MeasurementPoint); ok {
			if !point.Timestamp.Before(start) && !point.Timestamp.After(end) {
				result = append(result, point)
			}
		}
	}

	return result, nil
}

// GetAverageValue возвращает среднее значение за период от последней точки
func (s *InMemoryMeasurementStorage) GetAverageValue(source string, period time.Duration) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	historyList, exists := s.history[source]
	if !exists {
		return 0, ErrSourceNotFound
	}

	cutoff := s.periodCutoff(historyList, period)
	var sum float64
	count := 0

	for element := historyList.Back(); element != nil; element = element.Prev() {
		point, ok := element.Value.(types.MeasurementPoint)
		if !ok {
			continue
		}
		if point.Timestamp.Before(cutoff) {
			break
		}
		sum += point.Value
		count++
	}

	if count == 0 {
		return 0, ErrHistoryEmpty
	}

	return sum / float64(count), nil
}

// GetMinMaxValue возвращает минимум и максимум за период от последней точки
func (s *InMemoryMeasurementStorage) GetMinMaxValue(source string, period time.Duration) (min, max float64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	historyList, exists := s.history[source]
	if !exists {
		return 0, 0, ErrSourceNotFound
	}

	cutoff := s.periodCutoff(historyList, period)
	count := 0

	for element := historyList.Back(); element != nil; element = element.Prev() {
		point, ok := element.Value.(types.MeasurementPoint)
		if !ok {
			continue
		}
		if point.Timestamp.Before(cutoff) {
			break
		}
		if count == 0 || point.Value < min {
			min = point.Value
		}
		if count == 0 || point.Value > max {
			max = point.Value
		}
		count++
	}

	if count == 0 {
		return 0, 0, ErrHistoryEmpty
	}

	return min, max, nil
}

// periodCutoff считает границу периода от самой новой точки источника.
// Ряды часто исторические, поэтому отсчет от настоящего времени не годится.
func (s *InMemoryMeasurementStorage) periodCutoff(historyList *list.List, period time.Duration) time.Time {
	back := historyList.Back()
	if back == nil {
		return time.Time{}
	}
	point, ok := back.Value.(types.MeasurementPoint)
	if !ok {
		return time.Time{}
	}
	return point.Timestamp.Add(-period)
}

// Subscribe подписывает на обновления источника
func (s *InMemoryMeasurementStorage) Subscribe(source string, subscriber Subscriber) error {
	s.subscriptions.Subscribe(source, subscriber)
	return nil
}

// Unsubscribe отписывает от обновлений источника
func (s *InMemoryMeasurementStorage) Unsubscribe(source string, subscriber Subscriber) error {
	s.subscriptions.Unsubscribe(source, subscriber)
	return nil
}

// GetSubscriberCount возвращает количество подписчиков источника
func (s *InMemoryMeasurementStorage) GetSubscriberCount(source string) int {
	return s.subscriptions.GetSubscriberCount(source)
}

// CleanOldData удаляет точки старше maxAge от самой новой точки каждого источника
func (s *InMemoryMeasurementStorage) CleanOldData(maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removedCount := 0

	for source, historyList := range s.history {
		cutoff := s.periodCutoff(historyList, maxAge)

		for {
			front := historyList.Front()
			if front == nil {
				break
			}

			point, ok := front.Value.(types.MeasurementPoint)
			if !ok {
				historyList.Remove(front)
				continue
			}

			if point.Timestamp.Before(cutoff) {
				historyList.Remove(front)
				removedCount++
			} else {
				break
			}
		}

		if historyList.Len() == 0 {
			delete(s.history, source)
			delete(s.latest, source)
		}
	}

	s.updateStats()
	return removedCount, nil
}

// TruncateHistory ограничивает историю источника maxPoints точками
func (s *InMemoryMeasurementStorage) TruncateHistory(source string, maxPoints int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	historyList, exists := s.history[source]
	if !exists {
		return ErrSourceNotFound
	}

	for historyList.Len() > maxPoints {
		if front := historyList.Front(); front != nil {
			historyList.Remove(front)
		}
	}

	s.updateStats()
	return nil
}

// RemoveSource удаляет источник вместе с историей
func (s *InMemoryMeasurementStorage) RemoveSource(source string) error {
	s.mu.Lock()

	delete(s.latest, source)
	delete(s.history, source)
	s.updateStats()

	s.mu.Unlock()

	s.subscriptions.NotifySourceRemoved(source)

	return nil
}

// Clear очищает все данные
func (s *InMemoryMeasurementStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = make(map[string]types.MeasurementPoint)
	s.history = make(map[string]*list.List)

	s.updateStats()

	return nil
}

// GetStats возвращает статистику хранилища
func (s *InMemoryMeasurementStorage) GetStats() StorageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats
}

// GetSourceStats возвращает статистику по источнику
func (s *InMemoryMeasurementStorage) GetSourceStats(source string) (SourceStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest, exists := s.latest[source]
	if !exists {
		return SourceStats{}, ErrSourceNotFound
	}

	historyList, exists := s.history[source]
	if !exists || historyList.Len() == 0 {
		return SourceStats{}, ErrSourceNotFound
	}

	var first, last types.MeasurementPoint
	if front := historyList.Front(); front != nil {
		if point, ok := front.Value.(types.MeasurementPoint); ok {
			first = point
		}
	}
	if back := historyList.Back(); back != nil {
		if point, ok := back.Value.(types.MeasurementPoint); ok {
			last = point
		}
	}

	var sum, minValue, maxValue float64
	count := 0
	for element := historyList.Front(); element != nil; element = element.Next() {
		point, ok := element.Value.(types.MeasurementPoint)
		if !ok {
			continue
		}
		if count == 0 || point.Value < minValue {
			minValue = point.Value
		}
		if count == 0 || point.Value > maxValue {
			maxValue = point.Value
		}
		sum += point.Value
		count++
	}

	avg := 0.0
	if count > 0 {
		avg = sum / float64(count)
	}

	return SourceStats{
		Source:         source,
		DataPoints:     historyList.Len(),
		FirstTimestamp: first.Timestamp,
		LastTimestamp:  last.Timestamp,
		LatestValue:    latest.Value,
		AverageValue:   avg,
		MinValue:       minValue,
		MaxValue:       maxValue,
	}, nil
}

// Вспомогательные методы

func (s *InMemoryMeasurementStorage) updateStats() {
	s.stats = StorageStats{
		TotalSources:       len(s.latest),
		TotalDataPoints:    s.calculateTotalDataPoints(),
		OldestTimestamp:    s.findOldestTimestamp(),
		NewestTimestamp:    s.findNewestTimestamp(),
		StorageType:        "in_memory",
		MaxPointsPerSource: s.config.MaxPointsPerSource,
		RetentionPeriod:    s.config.RetentionPeriod,
	}
}

func (s *InMemoryMeasurementStorage) calculateTotalDataPoints() int64 {
	var total int64
	for _, historyList := range s.history {
		total += int64(historyList.Len())
	}
	return total
}

func (s *InMemoryMeasurementStorage) findOldestTimestamp() time.Time {
	var oldest time.Time
	first := true

	for _, historyList := range s.history {
		if front := historyList.Front(); front != nil {
			if point, ok := front.Value.(types.MeasurementPoint); ok {
				if first || point.Timestamp.Before(oldest) {
					oldest = point.Timestamp
					first = false
				}
			}
		}
	}

	if first {
		return time.Time{}
	}
	return oldest
}

func (s *InMemoryMeasurementStorage) findNewestTimestamp() time.Time {
	var newest time.Time

	for _, point := range s.latest {
		if point.Timestamp.After(newest) {
			newest = point.Timestamp
		}
	}

	return newest
}
