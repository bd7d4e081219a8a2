package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stopguard/internal/api"
	"stopguard/internal/config"
	"stopguard/internal/exchange"
	"stopguard/internal/guard"
	"stopguard/internal/repository"
	"stopguard/internal/service"
	"stopguard/internal/websocket"
	"stopguard/pkg/ratelimit"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.DSNWithoutPassword())

	// Инициализация репозиториев
	stopLossRepo := repository.NewStopLossRepository(db)
	riskRepo := repository.NewRiskRepository(db, cfg.Guard.FallbackStopLoss)
	flagRepo := repository.NewFlagRepository(db)
	symbolRepo := repository.NewSymbolRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	accountRepo := repository.NewAccountRepository(db)

	// Инициализация сервисов
	flagService := service.NewFlagService(flagRepo)
	riskService := service.NewRiskService(stopLossRepo, riskRepo)
	symbolService := service.NewSymbolService(symbolRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	accountService := service.NewAccountService(accountRepo, cfg.Security.EncryptionKey)

	// WebSocket hub: трансляция уведомлений и статусов охраны
	hub := websocket.NewHub()
	go hub.Run()
	notificationService.SetWebSocketHub(hub)

	// Биржевой клиент
	httpCfg := exchange.DefaultHTTPClientConfig()
	httpCfg.ReadTimeout = cfg.Exchange.RequestTimeout
	httpCfg.TotalTimeout = 3 * cfg.Exchange.RequestTimeout
	httpClient := exchange.NewHTTPClient(httpCfg)
	ex, err := exchange.New(cfg.Exchange.Name, httpClient)
	if err != nil {
		log.Fatalf("Failed to create exchange client: %v", err)
	}
	if err := accountService.Connect(ex); err != nil {
		// Без учётных данных охрана не стартует осмысленно, но API
		// остаётся доступным для их ввода
		log.Printf("Exchange %s not connected: %v", cfg.Exchange.Name, err)
	}

	// Координатор исполнения выхода и планировщик охраны
	limiter := ratelimit.NewRateLimiter(float64(cfg.Exchange.RateLimit), float64(cfg.Exchange.RateBurst))
	coordinator := guard.NewCoordinator(ex, notificationService.Publish, guard.CoordinatorConfig{
		ConfirmTimeout:      cfg.Guard.ConfirmTimeout,
		ConfirmPollInterval: cfg.Guard.ConfirmPollEvery,
		MaxRetries:          cfg.Exchange.MaxRetries,
		RetryBaseDelay:      cfg.Exchange.RetryBaseDelay,
	})
	scheduler := guard.NewScheduler(
		guard.SchedulerConfig{
			TickInterval:       cfg.Guard.TickInterval,
			WorkerPoolSize:     cfg.Guard.WorkerPoolSize,
			EvalTimeout:        cfg.Guard.EvalTimeout,
			CandleFetchLimit:   cfg.Guard.CandleFetchLimit,
			DefaultSellPercent: cfg.Guard.DefaultSellPercent,
			Indicator: guard.IndicatorConfig{
				RSIPeriod: cfg.Guard.RSIPeriod,
				ATRPeriod: cfg.Guard.ATRPeriod,
				EMAPeriod: cfg.Guard.EMAPeriod,
			},
			Classifier: guard.ClassifierConfig{
				RSIOversold:        cfg.Guard.RSIOversold,
				RSIOverbought:      cfg.Guard.RSIOverbought,
				DivergenceLookback: cfg.Guard.DivergenceLookback,
			},
			Decision: guard.DecisionConfig{
				TakeProfitATRMultiplier: cfg.Guard.TakeProfitATRMult,
			},
		},
		ex, flagService, riskService, symbolService, coordinator, limiter,
	)

	schedCtx, schedCancel := context.WithCancel(context.Background())
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := scheduler.Run(schedCtx); err != nil && err != context.Canceled {
			log.Printf("Guard scheduler stopped with error: %v", err)
		}
	}()

	guardService := service.NewGuardService(scheduler, flagService, notificationService)

	// Периодическая трансляция статусов охраны websocket-клиентам
	go broadcastGuardStatuses(schedCtx, hub, guardService, cfg.Guard.TickInterval)

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		GuardService:        guardService,
		RiskService:         riskService,
		NotificationService: notificationService,
		SymbolService:       symbolService,
		AccountService:      accountService,
		APITokenHash:        cfg.Security.APITokenHash,
		WSHandler: func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		},
	}

	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	// Сначала останавливаем планировщик: начатые процедуры выхода
	// дорабатывают до конца, новые циклы не стартуют
	schedCancel()
	select {
	case <-schedDone:
	case <-time.After(cfg.Server.ShutdownTimeout):
		log.Println("Guard scheduler did not stop in time")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	hub.Stop()
	if err := ex.Close(); err != nil {
		log.Printf("Error closing exchange connection: %v", err)
	}

	log.Println("Server exited")
}

// broadcastGuardStatuses периодически рассылает статусы охраны в hub
func broadcastGuardStatuses(ctx context.Context, hub *websocket.Hub, guards service.GuardServiceInterface, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if hub.ClientCount() == 0 {
				continue
			}
			for _, status := range guards.Statuses(ctx) {
				hub.BroadcastGuardUpdate(status)
			}
		}
	}
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnLifetime)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
