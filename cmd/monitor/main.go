// cmd/monitor/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"login-activity-monitor/application/bootstrap"
	"login-activity-monitor/internal/config"
	"login-activity-monitor/pkg/logger"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}

	// Инициализируем глобальный логгер с ротацией файлов
	if err := logger.InitGlobal(cfg.LogFile, cfg.LogLevel, cfg.DebugMode, logger.RotationConfig{
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	}); err != nil {
		log.Printf("⚠️  Не удалось инициализировать логгер: %v", err)
	}
	defer logger.Close()

	// Выводим информацию о конфигурации
	printHeader("МОНИТОР АКТИВНОСТИ ВХОДОВ")
	fmt.Printf("🔧 Конфигурация:\n")
	fmt.Printf("   Режим: %s\n", map[string]string{
		config.ModeBatch: "Пакетный 📄",
		config.ModeWatch: "Наблюдение 📡",
	}[cfg.MonitorMode])
	fmt.Printf("   Порог отклонения: %.1f сигм\n", cfg.StdDevThreshold)
	fmt.Printf("   Серия для алерта: %d минут подряд\n", cfg.ConsecutiveMinutes)
	fmt.Printf("   Порог нулевой аномалии: среднее >= %.0f\n", cfg.BaselineZeroThreshold)
	if cfg.MonitorMode == config.ModeWatch {
		fmt.Printf("   Интервал сканирования: %s\n", cfg.WatchInterval)
	}
	if cfg.TelegramNotify && cfg.TelegramBotToken != "" {
		fmt.Printf("   Telegram уведомления: ВКЛ (%s)\n", cfg.TelegramMessageFormat)
	} else {
		fmt.Printf("   Telegram уведомления: ВЫКЛ\n")
	}
	if cfg.ConsoleCompact {
		fmt.Printf("   Консоль: компактный вывод\n")
	}
	if cfg.DBEnabled {
		fmt.Printf("   PostgreSQL: ВКЛ (%s:%s/%s)\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	if cfg.RedisEnabled {
		fmt.Printf("   Redis: ВКЛ (%s)\n", cfg.RedisAddr)
	}
	fmt.Println()

	// В пакетном режиме спрашиваем недостающие пути к файлам
	if cfg.MonitorMode == config.ModeBatch {
		reader := bufio.NewReader(os.Stdin)
		cfg.BaselineFile = promptIfEmpty(reader, cfg.BaselineFile, "базового ряда")
		cfg.MeasuredFile = promptIfEmpty(reader, cfg.MeasuredFile, "измеренного ряда")
	}

	// Строим приложение с опциями
	app, err := bootstrap.NewAppBuilder().
		WithConfig(cfg).
		WithOption(bootstrap.WithInputFiles(cfg.BaselineFile, cfg.MeasuredFile)).
		WithOption(bootstrap.WithTelegramBot(cfg.TelegramBotToken, cfg.TelegramChatID)).
		Build()
	if err != nil {
		log.Fatalf("❌ Не удалось собрать приложение: %v", err)
	}

	// Обработка сигналов для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stopChan
		fmt.Println("\n🛑 Получен сигнал остановки...")
		cancel()
	}()

	startTime := time.Now()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("❌ Ошибка выполнения: %v", err)
	}

	// Итоги прогона
	fmt.Println()
	printHeader("Завершение работы")
	fmt.Printf("⏱️  Время работы: %s\n", formatDuration(time.Since(startTime)))
	if summary := app.Summary(); summary != nil {
		fmt.Printf("📊 Обработано точек: %d\n", summary.PointsProcessed)
		fmt.Printf("⚠️  Обнаружено аномалий: %d\n", summary.Anomalies)
		fmt.Printf("📈 Алертов поднято: %d, снято: %d\n", summary.AlertsStarted, summary.AlertsResolved)
		if summary.StillActive {
			fmt.Println("ℹ️  Алерт оставался активным на конец ряда")
		}
	}
	fmt.Println("✅ Монитор остановлен корректно")
}

// promptIfEmpty возвращает value, а при пустом значении спрашивает путь у пользователя
func promptIfEmpty(reader *bufio.Reader, value, label string) string {
	if value != "" {
		return value
	}

	fmt.Printf("📥 Укажите путь к CSV-файлу %s: ", label)
	line, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("Не удалось прочитать путь к файлу %s: %v", label, err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		log.Fatalf("Путь к файлу %s не задан", label)
	}
	return line
}

func printHeader(text string) {
	width := 80
	padding := (width - len(text)) / 2

	if padding < 0 {
		padding = 0
	}

	fmt.Println(strings.Repeat("═", width))
	fmt.Printf("%s%s%s\n",
		strings.Repeat(" ", padding),
		text,
		strings.Repeat(" ", width-len(text)-padding))
	fmt.Println(strings.Repeat("═", width))
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	}
	return fmt.Sprintf("%dс", seconds)
}
