// config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Режимы работы монитора
const (
	ModeBatch = "batch"
	ModeWatch = "watch"
)

// Форматы сообщений уведомлений
const (
	MessageFormatDetailed = "detailed"
	MessageFormatCompact  = "compact"
)

// Config - структура конфигурации приложения
type Config struct {
	// Detection
	StdDevThreshold       float64
	ConsecutiveMinutes    int
	BaselineZeroThreshold float64
	StdDevEpsilon         float64

	// Input
	BaselineFile  string
	MeasuredFile  string
	MonitorMode   string
	WatchInterval time.Duration

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	DebugMode     bool

	// Telegram
	TelegramBotToken      string
	TelegramChatID        string
	TelegramNotify        bool
	TelegramMessageFormat string

	// Console
	ConsoleCompact bool

	// Postgres
	DBEnabled         bool
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Redis
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// История алертов
	AlertHistoryLimit  int
	AlertRetentionDays int

	// Event bus
	EventBusBufferSize int
	EventBusWorkers    int

	// Хранилище измерений
	StorageMaxPoints int
}

// LoadConfig загружает конфигурацию из .env файла
func LoadConfig(envPath string) (*Config, error) {
	// Загружаем .env файл
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
	}

	config := &Config{
		// Detection
		StdDevThreshold:       getEnvFloat("STD_DEV_THRESHOLD", 3.0),
		ConsecutiveMinutes:    getEnvInt("CONSECUTIVE_MINUTES_THRESHOLD", 10),
		BaselineZeroThreshold: getEnvFloat("BASELINE_ZERO_THRESHOLD", 200),
		StdDevEpsilon:         getEnvFloat("STD_DEV_EPSILON", 1e-6),

		// Input
		BaselineFile:  getEnvString("BASELINE_FILE", ""),
		MeasuredFile:  getEnvString("MEASURED_FILE", ""),
		MonitorMode:   strings.ToLower(getEnvString("MONITOR_MODE", ModeBatch)),
		WatchInterval: getEnvDuration("WATCH_INTERVAL", 60*time.Second),

		// Logging
		LogLevel:      strings.ToUpper(getEnvString("LOG_LEVEL", "INFO")),
		LogFile:       getEnvString("LOG_FILE", "logs/monitor.log"),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		DebugMode:     getEnvBool("DEBUG_MODE", false),

		// Telegram
		TelegramBotToken:      getEnvString("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:        getEnvString("TELEGRAM_CHAT_ID", ""),
		TelegramNotify:        getEnvBool("TELEGRAM_NOTIFY", true),
		TelegramMessageFormat: strings.ToLower(getEnvString("TELEGRAM_MESSAGE_FORMAT", MessageFormatDetailed)),

		// Console
		ConsoleCompact: getEnvBool("NOTIFY_CONSOLE_COMPACT", false),

		// Postgres
		DBEnabled:         getEnvBool("DB_ENABLED", false),
		DBHost:            getEnvString("DB_HOST", "localhost"),
		DBPort:            getEnvString("DB_PORT", "5432"),
		DBUser:            getEnvString("DB_USER", "postgres"),
		DBPassword:        getEnvString("DB_PASSWORD", ""),
		DBName:            getEnvString("DB_NAME", "login_monitor"),
		DBSSLMode:         getEnvString("DB_SSLMODE", "disable"),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		// Redis
		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// История алертов
		AlertHistoryLimit:  getEnvInt("ALERT_HISTORY_LIMIT", 1000),
		AlertRetentionDays: getEnvInt("ALERT_RETENTION_DAYS", 30),

		// Event bus
		EventBusBufferSize: getEnvInt("EVENT_BUS_BUFFER_SIZE", 1000),
		EventBusWorkers:    getEnvInt("EVENT_BUS_WORKERS", 4),

		// Хранилище измерений
		StorageMaxPoints: getEnvInt("STORAGE_MAX_POINTS", 20160),
	}

	return config, nil
}

// Вспомогательные функции для парсинга переменных окружения
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.MonitorMode != ModeBatch && c.MonitorMode != ModeWatch {
		return fmt.Errorf("monitor mode must be %q or %q, got %q", ModeBatch, ModeWatch, c.MonitorMode)
	}

	if c.StdDevThreshold <= 0 {
		return fmt.Errorf("std dev threshold must be positive")
	}

	if c.ConsecutiveMinutes < 1 {
		return fmt.Errorf("consecutive minutes threshold must be at least 1")
	}

	if c.BaselineZeroThreshold < 0 {
		return fmt.Errorf("baseline zero threshold must not be negative")
	}

	if c.StdDevEpsilon <= 0 {
		return fmt.Errorf("std dev epsilon must be positive")
	}

	if c.MonitorMode == ModeWatch && c.WatchInterval < time.Second {
		return fmt.Errorf("watch interval must be at least 1 second")
	}

	if c.TelegramMessageFormat != MessageFormatDetailed && c.TelegramMessageFormat != MessageFormatCompact {
		return fmt.Errorf("telegram message format must be %q or %q", MessageFormatDetailed, MessageFormatCompact)
	}

	if c.DBEnabled && (c.DBHost == "" || c.DBName == "") {
		return fmt.Errorf("DB_HOST and DB_NAME are required when DB_ENABLED=true")
	}

	if c.RedisEnabled && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED=true")
	}

	if c.EventBusBufferSize < 1 || c.EventBusWorkers < 1 {
		return fmt.Errorf("event bus buffer size and workers must be at least 1")
	}

	if c.AlertHistoryLimit < 1 {
		return fmt.Errorf("alert history limit must be at least 1")
	}

	if c.StorageMaxPoints < 1 {
		return fmt.Errorf("storage max points must be at least 1")
	}

	return nil
}

// PostgresDSN собирает строку подключения к Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// IsTelegramConfigured сообщает, заданы ли учетные данные Telegram
func (c *Config) IsTelegramConfigured() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}
