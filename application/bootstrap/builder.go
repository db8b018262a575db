// application/bootstrap/builder.go
package bootstrap

import (
	"fmt"
	"log"
	"os"

	"login-activity-monitor/internal/config"
)

// AppBuilder - строитель приложения монитора
type AppBuilder struct {
	config  *config.Config
	options []AppOption
	logger  *log.Logger
}

// AppOption опция настройки приложения, применяется до Initialize
type AppOption func(*Application) error

// NewAppBuilder создает новый строитель приложений
func NewAppBuilder() *AppBuilder {
	return &AppBuilder{
		logger: log.New(os.Stdout, "[BUILDER] ", log.LstdFlags),
	}
}

// WithConfig устанавливает конфигурацию
func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	b.config = cfg
	return b
}

// WithConfigFile загружает конфигурацию из .env файла
func (b *AppBuilder) WithConfigFile(path string) *AppBuilder {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		b.logger.Printf("⚠️  Ошибка загрузки конфигурации: %v", err)
		return b
	}
	b.config = cfg
	return b
}

// WithOption добавляет опцию настройки
func (b *AppBuilder) WithOption(option AppOption) *AppBuilder {
	b.options = append(b.options, option)
	return b
}

// Build строит и инициализирует приложение
func (b *AppBuilder) Build() (*Application, error) {
	if b.config == nil {
		b.logger.Println("ℹ️  Конфигурация не задана, загружается .env")
		cfg, err := config.LoadConfig(".env")
		if err != nil {
			return nil, fmt.Errorf("загрузка конфигурации: %w", err)
		}
		b.config = cfg
	}

	app, err := NewApplication(b.config)
	if err != nil {
		return nil, fmt.Errorf("создание приложения: %w", err)
	}

	for _, option := range b.options {
		if err := option(app); err != nil {
			return nil, fmt.Errorf("применение опции: %w", err)
		}
	}

	if err := app.Initialize(); err != nil {
		return nil, fmt.Errorf("инициализация: %w", err)
	}

	return app, nil
}

// ==================== Опции приложения ====================

// WithMode задает режим работы монитора
func WithMode(mode string) AppOption {
	return func(app *Application) error {
		if mode != config.ModeBatch && mode != config.ModeWatch {
			return fmt.Errorf("неизвестный режим монитора %q", mode)
		}
		app.config.MonitorMode = mode
		return nil
	}
}

// WithInputFiles задает пути к файлам базового и измеренного рядов.
// Пустой путь оставляет значение из конфигурации.
func WithInputFiles(baselinePath, measuredPath string) AppOption {
	return func(app *Application) error {
		if baselinePath != "" {
			app.config.BaselineFile = baselinePath
		}
		if measuredPath != "" {
			app.config.MeasuredFile = measuredPath
		}
		return nil
	}
}

// WithTelegramBot задает учетные данные Telegram
func WithTelegramBot(token, chatID string) AppOption {
	return func(app *Application) error {
		if token != "" {
			app.config.TelegramBotToken = token
		}
		if chatID != "" {
			app.config.TelegramChatID = chatID
		}
		return nil
	}
}

// WithCompactConsole переключает консольный вывод на однострочный формат
func WithCompactConsole(enabled bool) AppOption {
	return func(app *Application) error {
		app.config.ConsoleCompact = enabled
		return nil
	}
}
