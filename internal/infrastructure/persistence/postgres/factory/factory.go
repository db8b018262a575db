// internal/infrastructure/persistence/postgres/factory/factory.go
package postgres_factory

import (
	"fmt"
	"sync"

	"login-activity-monitor/internal/infrastructure/cache/redis"
	"login-activity-monitor/internal/infrastructure/persistence/postgres/database"
	"login-activity-monitor/internal/infrastructure/persistence/postgres/repository/alerts"
	"login-activity-monitor/pkg/logger"
)

// RepositoryFactory фабрика для создания репозиториев PostgreSQL
type RepositoryFactory struct {
	db              *database.DatabaseService
	cache           *redis.Cache
	alertRepository alerts.AlertRepository
	mu              sync.RWMutex
	initialized     bool
}

// RepositoryDependencies зависимости для фабрики репозиториев
type RepositoryDependencies struct {
	DatabaseService *database.DatabaseService
	Cache           *redis.Cache
}

// NewRepositoryFactory создает новую фабрику репозиториев
func NewRepositoryFactory(deps RepositoryDependencies) (*RepositoryFactory, error) {
	if deps.DatabaseService == nil {
		return nil, fmt.Errorf("DatabaseService не может быть nil")
	}

	return &RepositoryFactory{
		db:          deps.DatabaseService,
		cache:       deps.Cache,
		initialized: true,
	}, nil
}

// CreateAlertRepository создает или возвращает репозиторий событий алертов
func (rf *RepositoryFactory) CreateAlertRepository() (alerts.AlertRepository, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if !rf.initialized {
		return nil, fmt.Errorf("фабрика репозиториев не инициализирована")
	}

	if rf.alertRepository == nil {
		db := rf.db.GetDB()
		if db == nil {
			return nil, fmt.Errorf("соединение с базой данных не установлено")
		}

		// cache допустим nil: репозиторий тогда ходит только в базу
		rf.alertRepository = alerts.NewAlertRepository(db, rf.cache)
		logger.Info("✅ AlertRepository создан")
	}

	return rf.alertRepository, nil
}

// IsReady проверяет готовность фабрики
func (rf *RepositoryFactory) IsReady() bool {
	rf.mu.RLock()
	defer rf.mu.RUnlock()

	return rf.initialized && rf.db != nil
}

// GetHealthStatus возвращает статус здоровья фабрики репозиториев
func (rf *RepositoryFactory) GetHealthStatus() map[string]interface{} {
	rf.mu.RLock()
	defer rf.mu.RUnlock()

	status := map[string]interface{}{
		"initialized":            rf.initialized,
		"database_service_ready": rf.db != nil,
		"cache_ready":            rf.cache != nil,
		"alert_repository_ready": rf.alertRepository != nil,
	}

	if rf.db != nil {
		status["database_healthy"] = rf.db.HealthCheck()
		status["database_state"] = rf.db.State()
	}

	return status
}

// Reset сбрасывает фабрику (очищает созданные репозитории)
func (rf *RepositoryFactory) Reset() {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	rf.alertRepository = nil
	rf.initialized = false
}
