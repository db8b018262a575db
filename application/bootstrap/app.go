// application/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"login-activity-monitor/application/pipeline"
	"login-activity-monitor/application/scheduler"
	"login-activity-monitor/application/watcher"
	"login-activity-monitor/internal/adapters/ingest"
	"login-activity-monitor/internal/config"
	"login-activity-monitor/internal/infrastructure/cache/redis"
	storage_factory "login-activity-monitor/internal/infrastructure/persistence/in_memory_storage/factory"
	"login-activity-monitor/internal/infrastructure/persistence/postgres/database"
	postgres_factory "login-activity-monitor/internal/infrastructure/persistence/postgres/factory"
	"login-activity-monitor/internal/infrastructure/persistence/postgres/repository/alerts"
	"login-activity-monitor/internal/infrastructure/persistence/recorder"
	history_manager "login-activity-monitor/internal/infrastructure/persistence/redis_storage/history_manager"
	events "login-activity-monitor/internal/infrastructure/transport/event_bus"
	"login-activity-monitor/internal/notifier"
	"login-activity-monitor/internal/types"
	"login-activity-monitor/pkg/logger"
)

// shutdownTimeout ограничивает graceful shutdown приложения
const shutdownTimeout = 30 * time.Second

// Application - собранный монитор входов: шина событий, нотификаторы,
// пайплайн и, в режиме watch, наблюдатель файла с планировщиком.
// Redis и Postgres подключаются опционально; их отказ не останавливает
// мониторинг.
type Application struct {
	config *config.Config

	eventBus       *events.EventBus
	composite      *notifier.CompositeNotificationService
	loader         *ingest.CSVLoader
	pipeline       *pipeline.MonitorPipeline
	watcher        *watcher.Watcher
	scheduler      *scheduler.Scheduler
	storageFactory *storage_factory.StorageFactory

	redisService   *redis.RedisService
	historyManager *history_manager.HistoryManager
	dbService      *database.DatabaseService
	alertRepo      alerts.AlertRepository
	recorder       *recorder.AlertRecorder

	mu          sync.RWMutex
	initialized bool
	running     bool
	startTime   time.Time
	stopChan    chan os.Signal
	summary     *pipeline.RunSummary
}

// NewApplication создает приложение с проверенной конфигурацией
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("конфигурация не задана")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %w", err)
	}

	return &Application{
		config:   cfg,
		loader:   ingest.NewCSVLoader(),
		stopChan: make(chan os.Signal, 1),
	}, nil
}

// Initialize собирает все компоненты приложения:
// шина событий -> нотификаторы -> хранилища -> пайплайн
func (app *Application) Initialize() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.initialized {
		return nil
	}

	logger.Info("🚀 Инициализация монитора входов (режим %s)...", app.config.MonitorMode)

	// 1. Шина событий
	factory := &events.Factory{}
	app.eventBus = factory.NewEventBusFromConfig(app.config)
	app.eventBus.Start()

	// 2. Нотификаторы и их подписка на события алертов
	app.composite = notifier.NewNotifierFactory().CreateCompositeNotifier(app.config)
	notificationService := notifier.NewNotificationService(app.composite)
	for _, eventType := range notificationService.GetSubscribedEvents() {
		app.eventBus.Subscribe(eventType, notificationService)
	}

	// 3. Опциональная инфраструктура
	app.initRedis()
	app.initPostgres()
	app.initRecorder()

	// 4. Пайплайн мониторинга
	app.pipeline = pipeline.NewMonitorPipeline(app.config, app.eventBus)

	app.initialized = true
	logger.Info("✅ Монитор входов инициализирован")

	return nil
}

// initRedis подключает Redis и менеджер хронологии алертов.
// Отказ подключения деградирует до работы без хронологии.
func (app *Application) initRedis() {
	if !app.config.RedisEnabled {
		return
	}

	app.redisService = redis.NewRedisService(app.config)
	if err := app.redisService.Start(); err != nil {
		logger.Warn("⚠️ Redis недоступен, хронология алертов отключена: %v", err)
		app.redisService = nil
		return
	}

	app.historyManager = history_manager.NewHistoryManager(app.config.AlertHistoryLimit)
	app.historyManager.Initialize(app.redisService.GetClient())
}

// initPostgres подключает базу и репозиторий событий алертов.
// Отказ подключения деградирует до работы без долговременного хранилища.
func (app *Application) initPostgres() {
	if !app.config.DBEnabled {
		return
	}

	app.dbService = database.NewDatabaseService(app.config)
	if err := app.dbService.Start(); err != nil {
		logger.Warn("⚠️ Postgres недоступен, события алертов не будут сохраняться: %v", err)
		app.dbService = nil
		return
	}

	var cache *redis.Cache
	if app.redisService != nil {
		cache = app.redisService.GetCache()
	}

	repoFactory, err := postgres_factory.NewRepositoryFactory(postgres_factory.RepositoryDependencies{
		DatabaseService: app.dbService,
		Cache:           cache,
	})
	if err != nil {
		logger.Warn("⚠️ Фабрика репозиториев не создана: %v", err)
		return
	}

	repo, err := repoFactory.CreateAlertRepository()
	if err != nil {
		logger.Warn("⚠️ Репозиторий алертов не создан: %v", err)
		return
	}
	app.alertRepo = repo
}

// initRecorder подписывает запись событий алертов в хранилища
func (app *Application) initRecorder() {
	var store recorder.EventStore
	if app.alertRepo != nil {
		store = app.alertRepo
	}
	var timeline recorder.TimelineStore
	if app.historyManager != nil {
		timeline = app.historyManager
	}

	if store == nil && timeline == nil {
		return
	}

	app.recorder = recorder.NewAlertRecorder(store, timeline)
	for _, eventType := range app.recorder.GetSubscribedEvents() {
		app.eventBus.Subscribe(eventType, app.recorder)
	}
}

// Run запускает мониторинг и блокируется до его завершения.
// В batch-режиме это один прогон измеренного ряда, в watch-режиме -
// работа до сигнала завершения или отмены контекста.
func (app *Application) Run(ctx context.Context) error {
	app.mu.Lock()
	if app.running {
		app.mu.Unlock()
		return errors.New("приложение уже запущено")
	}
	if !app.initialized {
		app.mu.Unlock()
		return errors.New("приложение не инициализировано, вызовите Initialize")
	}
	app.running = true
	app.startTime = time.Now()
	app.mu.Unlock()

	app.publishLifecycle(types.EventServiceStarted)

	var err error
	switch app.config.MonitorMode {
	case config.ModeWatch:
		err = app.runWatch(ctx)
	default:
		err = app.runBatch(ctx)
	}

	app.shutdownWithTimeout(shutdownTimeout)
	return err
}

// runBatch выполняет один прогон: базовый ряд, измеренный ряд, итог
func (app *Application) runBatch(ctx context.Context) error {
	baselinePoints, _, err := app.loader.LoadSeries(app.config.BaselineFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки базового ряда: %w", err)
	}

	if err := app.pipeline.Prepare(baselinePoints); err != nil {
		return err
	}

	measuredPoints, _, err := app.loader.LoadSeries(app.config.MeasuredFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки измеренного ряда: %w", err)
	}

	summary, err := app.pipeline.Run(ctx, measuredPoints)
	if err != nil {
		return err
	}

	app.mu.Lock()
	app.summary = summary
	app.mu.Unlock()

	return nil
}

// runWatch запускает наблюдение за файлом измерений по расписанию
func (app *Application) runWatch(ctx context.Context) error {
	baselinePoints, _, err := app.loader.LoadSeries(app.config.BaselineFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки базового ряда: %w", err)
	}

	if err := app.pipeline.Prepare(baselinePoints); err != nil {
		return err
	}

	// Хранилище измерений с фоновой очисткой
	sf, err := storage_factory.NewStorageFactory(nil)
	if err != nil {
		return fmt.Errorf("ошибка создания фабрики хранилищ: %w", err)
	}
	if err := sf.Start(); err != nil {
		return fmt.Errorf("ошибка запуска фабрики хранилищ: %w", err)
	}
	app.storageFactory = sf

	measurementStorage, err := sf.CreateDefaultStorage()
	if err != nil {
		return fmt.Errorf("ошибка создания хранилища измерений: %w", err)
	}

	app.watcher = watcher.NewWatcher(
		app.config.MeasuredFile, app.loader, measurementStorage, app.pipeline, baselinePoints)

	// Первый скан сразу: файл может уже содержать данные
	if err := app.watcher.Scan(ctx); err != nil {
		logger.Warn("⚠️ Первое сканирование не удалось: %v", err)
	}

	app.scheduler = scheduler.New()
	app.registerWatchJobs()
	app.scheduler.Start()

	signal.Notify(app.stopChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("📡 Монитор наблюдает за %s каждые %v", app.config.MeasuredFile, app.config.WatchInterval)

	select {
	case sig := <-app.stopChan:
		logger.Info("🛑 Получен сигнал %v, завершение работы...", sig)
	case <-ctx.Done():
		logger.Info("🛑 Контекст отменен, завершение работы...")
	}

	return nil
}

// registerWatchJobs регистрирует периодические задачи режима watch
func (app *Application) registerWatchJobs() {
	app.scheduler.Register(&scheduler.Job{
		Name:        "scan-measurements",
		Description: "Перечитывание файла измерений и обработка новых строк",
		Schedule:    scheduler.Every(app.config.WatchInterval),
		Handler:     app.watcher.Scan,
	})

	if app.historyManager != nil {
		retention := time.Duration(app.config.AlertRetentionDays) * 24 * time.Hour
		app.scheduler.Register(&scheduler.Job{
			Name:        "history-cleanup",
			Description: "Удаление устаревших событий из хронологии алертов",
			Schedule:    scheduler.DailyAt(3, 0),
			Handler: func(ctx context.Context) error {
				removed, err := app.historyManager.CleanupOldHistory(ctx, retention)
				if err != nil {
					return err
				}
				if removed > 0 {
					logger.Info("🧹 Хронология алертов: удалено %d устаревших событий", removed)
				}
				if app.alertRepo != nil {
					deleted, err := app.alertRepo.DeleteOlderThan(ctx, time.Now().Add(-retention))
					if err != nil {
						return err
					}
					if deleted > 0 {
						logger.Info("🧹 База алертов: удалено %d устаревших событий", deleted)
					}
				}
				return nil
			},
		})
	}
}

// Stop инициирует завершение работы приложения
func (app *Application) Stop() {
	select {
	case app.stopChan <- syscall.SIGTERM:
	default:
	}
}

// shutdownWithTimeout выполняет graceful shutdown с таймаутом
func (app *Application) shutdownWithTimeout(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		app.shutdown()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("✅ Graceful shutdown завершен")
	case <-time.After(timeout):
		logger.Warn("⚠️ Таймаут graceful shutdown, принудительное завершение")
	}
}

// shutdown останавливает компоненты в порядке, обратном запуску
func (app *Application) shutdown() {
	app.mu.Lock()
	if !app.running {
		app.mu.Unlock()
		return
	}
	app.running = false
	app.mu.Unlock()

	logger.Info("🛑 Остановка монитора входов...")

	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	// Финальное событие волны still_active, если алерт не успел разрешиться
	if app.pipeline != nil {
		app.pipeline.Finish()
	}

	app.publishLifecycle(types.EventServiceStopped)

	if app.eventBus != nil {
		app.eventBus.Stop()
	}
	if app.storageFactory != nil {
		if err := app.storageFactory.Stop(); err != nil {
			logger.Warn("⚠️ Ошибка остановки фабрики хранилищ: %v", err)
		}
	}
	if app.dbService != nil {
		if err := app.dbService.Stop(); err != nil {
			logger.Warn("⚠️ Ошибка остановки Postgres: %v", err)
		}
	}
	if app.redisService != nil {
		if err := app.redisService.Stop(); err != nil {
			logger.Warn("⚠️ Ошибка остановки Redis: %v", err)
		}
	}

	app.mu.RLock()
	uptime := time.Since(app.startTime)
	app.mu.RUnlock()
	logger.Info("✅ Монитор остановлен. Время работы: %v", uptime)
}

// publishLifecycle публикует служебное событие жизненного цикла
func (app *Application) publishLifecycle(eventType types.EventType) {
	if app.eventBus == nil {
		return
	}
	err := app.eventBus.Publish(types.Event{
		Type:   eventType,
		Source: "application",
		Data: map[string]interface{}{
			"mode": app.config.MonitorMode,
		},
	})
	if err != nil {
		logger.Debug("событие %s не опубликовано: %v", eventType, err)
	}
}

// Summary возвращает итог последнего batch-прогона
func (app *Application) Summary() *pipeline.RunSummary {
	app.mu.RLock()
	defer app.mu.RUnlock()

	if app.summary == nil {
		return nil
	}
	summaryCopy := *app.summary
	return &summaryCopy
}

// Status возвращает состояние приложения и его компонентов
func (app *Application) Status() map[string]interface{} {
	app.mu.RLock()
	defer app.mu.RUnlock()

	status := map[string]interface{}{
		"running":    app.running,
		"mode":       app.config.MonitorMode,
		"uptime":     time.Since(app.startTime).String(),
		"start_time": app.startTime.Format(time.RFC3339),
	}

	if app.pipeline != nil {
		status["pipeline"] = app.pipeline.GetStats()
	}
	if app.watcher != nil {
		status["watcher"] = app.watcher.GetStats()
	}
	if app.eventBus != nil {
		status["event_bus"] = app.eventBus.GetMetricsMap()
	}
	if app.composite != nil {
		status["notifiers"] = app.composite.GetStats()
	}
	if app.recorder != nil {
		status["recorder"] = app.recorder.GetStats()
	}
	if app.dbService != nil {
		status["database"] = app.dbService.GetStats()
	}
	if app.redisService != nil {
		status["redis"] = app.redisService.GetStats()
	}

	return status
}
