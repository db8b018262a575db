// internal/infrastructure/persistence/in_memory_storage/factory/factory.go
package storage_factory

import (
	"fmt"
	"sync"
	"time"

	storage "login-activity-monitor/internal/infrastructure/persistence/in_memory_storage"
	"login-activity-monitor/pkg/logger"
)

// StorageFactory фабрика in-memory хранилищ измерений
type StorageFactory struct {
	defaultStorage storage.MeasurementStorage
	config         *StorageFactoryConfig
	mu             sync.RWMutex
	initialized    bool
	cleanupRunning bool
	stopCleanup    chan struct{}
	cleanupWg      sync.WaitGroup
}

// StorageFactoryConfig конфигурация фабрики хранилищ
type StorageFactoryConfig struct {
	DefaultStorageConfig *storage.StorageConfig
	EnableCleanupRoutine bool
	CleanupInterval      time.Duration
}

// NewStorageFactory создает новую фабрику хранилищ
func NewStorageFactory(config *StorageFactoryConfig) (*StorageFactory, error) {
	if config == nil {
		config = &StorageFactoryConfig{
			DefaultStorageConfig: &storage.StorageConfig{
				MaxPointsPerSource: 20160,
				MaxSources:         16,
				CleanupInterval:    5 * time.Minute,
				RetentionPeriod:    15 * 24 * time.Hour,
			},
			EnableCleanupRoutine: true,
			CleanupInterval:      5 * time.Minute,
		}
	}

	if config.DefaultStorageConfig == nil {
		return nil, fmt.Errorf("конфигурация хранилища по умолчанию не может быть nil")
	}

	return &StorageFactory{
		config:      config,
		stopCleanup: make(chan struct{}),
	}, nil
}

// Initialize создает хранилище по умолчанию
func (sf *StorageFactory) Initialize() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	if sf.initialized {
		return fmt.Errorf("фабрика хранилищ уже инициализирована")
	}

	sf.defaultStorage = storage.NewInMemoryMeasurementStorage(sf.config.DefaultStorageConfig)
	sf.initialized = true

	logger.Info("✅ In-memory хранилище измерений создано")
	logger.Info("   • Макс. точек на источник: %d", sf.config.DefaultStorageConfig.MaxPointsPerSource)
	logger.Info("   • Очистка включена: %v", sf.config.EnableCleanupRoutine)

	return nil
}

// Start запускает фоновую очистку, если она включена
func (sf *StorageFactory) Start() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	if !sf.initialized {
		return fmt.Errorf("фабрика хранилищ не инициализирована")
	}

	if sf.cleanupRunning {
		return fmt.Errorf("фабрика хранилищ уже запущена")
	}

	if sf.config.EnableCleanupRoutine {
		sf.cleanupRunning = true
		sf.cleanupWg.Add(1)
		go sf.startCleanupRoutine(sf.stopCleanup)
		logger.Info("🔄 Фоновая очистка хранилища запущена (интервал: %v)", sf.config.CleanupInterval)
	}

	return nil
}

// Stop останавливает фоновую очистку.
// Ожидание рутины идет вне блокировки, рутина берет RLock при очистке.
func (sf *StorageFactory) Stop() error {
	sf.mu.Lock()
	if !sf.cleanupRunning {
		sf.mu.Unlock()
		return nil
	}
	sf.cleanupRunning = false
	stop := sf.stopCleanup
	sf.stopCleanup = make(chan struct{}) // Новый канал для возможного перезапуска
	sf.mu.Unlock()

	close(stop)
	sf.cleanupWg.Wait()

	logger.Info("🛑 Фоновая очистка хранилища остановлена")
	return nil
}

// CreateDefaultStorage создает или возвращает хранилище по умолчанию
func (sf *StorageFactory) CreateDefaultStorage() (storage.MeasurementStorage, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	if !sf.initialized {
		return nil, fmt.Errorf("фабрика хранилищ не инициализирована")
	}

	if sf.defaultStorage == nil {
		sf.defaultStorage = storage.NewInMemoryMeasurementStorage(sf.config.DefaultStorageConfig)
	}

	return sf.defaultStorage, nil
}

// IsReady проверяет готовность фабрики
func (sf *StorageFactory) IsReady() bool {
	sf.mu.RLock()
	defer sf.mu.RUnlock()

	return sf.initialized && sf.config != nil
}

// IsRunning проверяет, запущена ли фоновая очистка
func (sf *StorageFactory) IsRunning() bool {
	sf.mu.RLock()
	defer sf.mu.RUnlock()
	return sf.cleanupRunning
}

// GetHealthStatus возвращает статус здоровья фабрики
func (sf *StorageFactory) GetHealthStatus() map[string]interface{} {
	sf.mu.RLock()
	defer sf.mu.RUnlock()

	status := map[string]interface{}{
		"initialized":           sf.initialized,
		"cleanup_running":       sf.cleanupRunning,
		"default_storage_ready": sf.defaultStorage != nil,
		"cleanup_enabled":       sf.config.EnableCleanupRoutine,
	}

	if sf.defaultStorage != nil {
		stats := sf.defaultStorage.GetStats()
		status["default_storage_stats"] = map[string]interface{}{
			"total_sources":     stats.TotalSources,
			"total_data_points": stats.TotalDataPoints,
			"oldest_timestamp":  stats.OldestTimestamp,
			"newest_timestamp":  stats.NewestTimestamp,
		}
	}

	return status
}

// Reset сбрасывает фабрику
func (sf *StorageFactory) Reset() {
	sf.Stop()

	sf.mu.Lock()
	defer sf.mu.Unlock()

	if sf.defaultStorage != nil {
		sf.defaultStorage.Clear()
		sf.defaultStorage = nil
	}

	sf.initialized = false
}

// startCleanupRoutine запускает рутину очистки старых данных
func (sf *StorageFactory) startCleanupRoutine(stop <-chan struct{}) {
	defer sf.cleanupWg.Done()

	ticker := time.NewTicker(sf.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sf.cleanupOldData()
		case <-stop:
			return
		}
	}
}

// cleanupOldData очищает старые данные в хранилище по умолчанию
func (sf *StorageFactory) cleanupOldData() {
	sf.mu.RLock()
	defer sf.mu.RUnlock()

	if !sf.initialized || sf.defaultStorage == nil {
		return
	}

	retention := sf.config.DefaultStorageConfig.RetentionPeriod
	if removed, err := sf.defaultStorage.CleanOldData(retention); err != nil {
		logger.Warn("⚠️ Не удалось очистить хранилище измерений: %v", err)
	} else if removed > 0 {
		logger.Debug("🧹 Хранилище измерений: удалено %d старых точек", removed)
	}
}
