// internal/infrastructure/persistence/postgres/database/schema.go
package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements выполняются по порядку при каждом старте, все идемпотентны
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS alert_events (
		id UUID PRIMARY KEY,
		kind TEXT NOT NULL,
		detected_at TIMESTAMPTZ NOT NULL,
		estimated_start TIMESTAMPTZ,
		estimated_resolve TIMESTAMPTZ,
		alert_start TIMESTAMPTZ,
		initial_type TEXT NOT NULL DEFAULT '',
		initial_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		current_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		current_mean DOUBLE PRECISION NOT NULL DEFAULT 0,
		current_upper DOUBLE PRECISION NOT NULL DEFAULT 0,
		current_lower DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alert_events_detected_at ON alert_events (detected_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_alert_events_kind ON alert_events (kind)`,
}

// EnsureSchema создает таблицу alert_events и ее индексы, если их еще нет
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	return nil
}
