// config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefaults(t *testing.T) *Config {
	t.Helper()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	return cfg
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := loadDefaults(t)

	assert.Equal(t, 3.0, cfg.StdDevThreshold)
	assert.Equal(t, 10, cfg.ConsecutiveMinutes)
	assert.Equal(t, 200.0, cfg.BaselineZeroThreshold)
	assert.Equal(t, 1e-6, cfg.StdDevEpsilon)
	assert.Equal(t, ModeBatch, cfg.MonitorMode)
	assert.Equal(t, 60*time.Second, cfg.WatchInterval)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "logs/monitor.log", cfg.LogFile)
	assert.Equal(t, 10, cfg.LogMaxSizeMB)
	assert.Equal(t, 28, cfg.LogMaxAgeDays)
	assert.True(t, cfg.TelegramNotify)
	assert.Equal(t, MessageFormatDetailed, cfg.TelegramMessageFormat)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 1000, cfg.AlertHistoryLimit)
	assert.Equal(t, 30, cfg.AlertRetentionDays)
	assert.Equal(t, 1000, cfg.EventBusBufferSize)
	assert.Equal(t, 4, cfg.EventBusWorkers)
	assert.Equal(t, 20160, cfg.StorageMaxPoints)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("STD_DEV_THRESHOLD", "2.5")
	t.Setenv("CONSECUTIVE_MINUTES_THRESHOLD", "5")
	t.Setenv("MONITOR_MODE", "WATCH")
	t.Setenv("WATCH_INTERVAL", "30s")
	t.Setenv("DEBUG_MODE", "true")
	t.Setenv("TELEGRAM_MESSAGE_FORMAT", "COMPACT")

	cfg := loadDefaults(t)

	assert.Equal(t, 2.5, cfg.StdDevThreshold)
	assert.Equal(t, 5, cfg.ConsecutiveMinutes)
	assert.Equal(t, ModeWatch, cfg.MonitorMode)
	assert.Equal(t, 30*time.Second, cfg.WatchInterval)
	assert.True(t, cfg.DebugMode)
	assert.Equal(t, MessageFormatCompact, cfg.TelegramMessageFormat)
}

func TestLoadConfig_ReadsEnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	content := "BASELINE_FILE=/data/baseline.csv\nMEASURED_FILE=/data/measured.csv\nLOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0644))
	t.Cleanup(func() {
		os.Unsetenv("BASELINE_FILE")
		os.Unsetenv("MEASURED_FILE")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := LoadConfig(envPath)
	require.NoError(t, err)

	assert.Equal(t, "/data/baseline.csv", cfg.BaselineFile)
	assert.Equal(t, "/data/measured.csv", cfg.MeasuredFile)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoadConfig_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("CONSECUTIVE_MINUTES_THRESHOLD", "ten")
	t.Setenv("WATCH_INTERVAL", "fast")
	t.Setenv("DB_ENABLED", "yes")

	cfg := loadDefaults(t)

	assert.Equal(t, 10, cfg.ConsecutiveMinutes)
	assert.Equal(t, 60*time.Second, cfg.WatchInterval)
	assert.False(t, cfg.DBEnabled)
}

func TestConfig_Validate(t *testing.T) {
	valid := loadDefaults(t)
	require.NoError(t, valid.Validate())

	badMode := *valid
	badMode.MonitorMode = "stream"
	assert.Error(t, badMode.Validate())

	badThreshold := *valid
	badThreshold.StdDevThreshold = 0
	assert.Error(t, badThreshold.Validate())

	badStreak := *valid
	badStreak.ConsecutiveMinutes = 0
	assert.Error(t, badStreak.Validate())

	badEpsilon := *valid
	badEpsilon.StdDevEpsilon = 0
	assert.Error(t, badEpsilon.Validate())

	badWatch := *valid
	badWatch.MonitorMode = ModeWatch
	badWatch.WatchInterval = 500 * time.Millisecond
	assert.Error(t, badWatch.Validate())

	badFormat := *valid
	badFormat.TelegramMessageFormat = "verbose"
	assert.Error(t, badFormat.Validate())

	badDB := *valid
	badDB.DBEnabled = true
	badDB.DBHost = ""
	assert.Error(t, badDB.Validate())

	badBus := *valid
	badBus.EventBusWorkers = 0
	assert.Error(t, badBus.Validate())
}

func TestConfig_PostgresDSN(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.DBHost = "db.internal"
	cfg.DBPort = "5433"
	cfg.DBUser = "monitor"
	cfg.DBPassword = "secret"
	cfg.DBName = "logins"
	cfg.DBSSLMode = "require"

	assert.Equal(t,
		"host=db.internal port=5433 user=monitor password=secret dbname=logins sslmode=require",
		cfg.PostgresDSN())
}

func TestConfig_IsTelegramConfigured(t *testing.T) {
	cfg := loadDefaults(t)
	assert.False(t, cfg.IsTelegramConfigured())

	cfg.TelegramBotToken = "123:abc"
	assert.False(t, cfg.IsTelegramConfigured())

	cfg.TelegramChatID = "-100200"
	assert.True(t, cfg.IsTelegramConfigured())
}
