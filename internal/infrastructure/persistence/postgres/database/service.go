// internal/infrastructure/persistence/postgres/database/service.go
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"login-activity-monitor/internal/config"
	"login-activity-monitor/pkg/logger"
)

// DatabaseService сервис для работы с базой данных
type DatabaseService struct {
	config *config.Config
	db     *sqlx.DB
	mu     sync.RWMutex
	state  ServiceState
}

// ServiceState состояние сервиса
type ServiceState string

const (
	StateStopped  ServiceState = "stopped"
	StateStarting ServiceState = "starting"
	StateRunning  ServiceState = "running"
	StateStopping ServiceState = "stopping"
	StateError    ServiceState = "error"
)

// NewDatabaseService создает новый сервис базы данных
func NewDatabaseService(cfg *config.Config) *DatabaseService {
	return &DatabaseService{
		config: cfg,
		state:  StateStopped,
	}
}

// Start запускает сервис базы данных
func (ds *DatabaseService) Start() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.state == StateRunning {
		return fmt.Errorf("database service already running")
	}

	logger.Info("🔄 Starting database service...")
	ds.state = StateStarting

	logger.Info("📡 Connecting to PostgreSQL: %s:%s/%s",
		ds.config.DBHost, ds.config.DBPort, ds.config.DBName)

	db, err := sqlx.Open("postgres", ds.config.PostgresDSN())
	if err != nil {
		ds.state = StateError
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	// Настраиваем пул соединений
	db.SetMaxOpenConns(ds.config.DBMaxOpenConns)
	db.SetMaxIdleConns(ds.config.DBMaxIdleConns)
	db.SetConnMaxLifetime(ds.config.DBConnMaxLifetime)

	// Проверяем подключение с таймаутом
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		ds.state = StateError
		return fmt.Errorf("failed to ping database: %w", err)
	}

	ds.db = db
	ds.state = StateRunning

	logger.Info("✅ Successfully connected to PostgreSQL")
	logger.Info("   • Host: %s:%s", ds.config.DBHost, ds.config.DBPort)
	logger.Info("   • Database: %s", ds.config.DBName)
	logger.Info("   • User: %s", ds.config.DBUser)
	logger.Info("   • Pool: %d/%d connections",
		ds.config.DBMaxIdleConns, ds.config.DBMaxOpenConns)

	// Создаем схему при первом запуске
	if err := ds.ensureSchema(); err != nil {
		logger.Warn("⚠️ Database schema setup failed: %v", err)
		// Не останавливаем приложение: запись событий просто будет падать с ошибкой
	}

	return nil
}

// Stop останавливает сервис базы данных
func (ds *DatabaseService) Stop() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.state != StateRunning {
		return fmt.Errorf("database service is not running")
	}

	logger.Info("🛑 Stopping database service...")
	ds.state = StateStopping

	if ds.db != nil {
		if err := ds.db.Close(); err != nil {
			ds.state = StateError
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	ds.db = nil
	ds.state = StateStopped
	logger.Info("✅ Database service stopped")

	return nil
}

// ensureSchema создает таблицу событий и индексы, если их еще нет
func (ds *DatabaseService) ensureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("🔄 Ensuring database schema...")

	if err := EnsureSchema(ctx, ds.db); err != nil {
		return err
	}

	logger.Info("✅ Database schema is up to date")
	return nil
}

// GetDB возвращает соединение с базой данных
func (ds *DatabaseService) GetDB() *sqlx.DB {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.db
}

// State возвращает состояние сервиса
func (ds *DatabaseService) State() ServiceState {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.state
}

// IsRunning проверяет, запущен ли сервис
func (ds *DatabaseService) IsRunning() bool {
	return ds.State() == StateRunning
}

// HealthCheck проверяет здоровье базы данных
func (ds *DatabaseService) HealthCheck() bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if ds.state != StateRunning || ds.db == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ds.db.PingContext(ctx); err != nil {
		logger.Warn("⚠️ Database health check failed: %v", err)
		return false
	}

	return true
}

// GetStats возвращает статистику базы данных
func (ds *DatabaseService) GetStats() map[string]interface{} {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	stats := map[string]interface{}{
		"state":     ds.state,
		"connected": ds.db != nil,
	}

	if ds.db != nil {
		stats["open_connections"] = ds.db.Stats().OpenConnections
		stats["in_use"] = ds.db.Stats().InUse
		stats["idle"] = ds.db.Stats().Idle
		stats["wait_count"] = ds.db.Stats().WaitCount
		stats["wait_duration"] = ds.db.Stats().WaitDuration.String()
	}

	return stats
}

// TestConnection тестирует подключение к базе данных
func (ds *DatabaseService) TestConnection() error {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if ds.state != StateRunning || ds.db == nil {
		return fmt.Errorf("database service is not running")
	}

	var result int
	if err := ds.db.Get(&result, "SELECT 1"); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	return nil
}
