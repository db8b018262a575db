// internal/infrastructure/persistence/postgres/database/interface.go
package database

import (
	"github.com/jmoiron/sqlx"
)

// Service интерфейс сервиса базы данных
type Service interface {
	Start() error
	Stop() error
	GetDB() *sqlx.DB
	State() ServiceState
	IsRunning() bool
	HealthCheck() bool
	GetStats() map[string]interface{}
	TestConnection() error
}
