package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stopguard/internal/api/handlers"
	"stopguard/internal/api/middleware"
	"stopguard/internal/service"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	GuardService        service.GuardServiceInterface
	RiskService         service.RiskServiceInterface
	NotificationService service.NotificationServiceInterface
	SymbolService       service.SymbolServiceInterface
	AccountService      service.AccountServiceInterface

	// APITokenHash - bcrypt-хэш bearer-токена; пустой хэш отключает auth
	APITokenHash string

	// WSHandler обслуживает /ws/stream (nil - без WebSocket)
	WSHandler http.HandlerFunc
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /guards/
//	│   ├── GET / - статусы охраны всех символов
//	│   ├── PATCH /auto-exit - глобальный переключатель авто-выхода
//	│   ├── GET /{symbol} - статус символа
//	│   ├── POST /{symbol}/sell - принудительная продажа
//	│   ├── POST /{symbol}/pause - приостановить авто-выход
//	│   └── POST /{symbol}/resume - возобновить авто-выход
//	├── /risk/
//	│   ├── GET / - глобальные риск-настройки
//	│   └── PATCH / - обновить настройки
//	├── /stop-loss/
//	│   ├── GET / - персональные stop-loss проценты
//	│   ├── PUT /{symbol} - задать процент
//	│   └── DELETE /{symbol} - вернуть к fallback
//	├── /symbols/
//	│   ├── GET / - отслеживаемые символы
//	│   ├── POST / - добавить символ
//	│   └── DELETE /{symbol} - убрать символ
//	├── /notifications/
//	│   ├── GET / - журнал событий
//	│   ├── DELETE / - очистка старых записей
//	│   ├── GET /preferences - настройки типов
//	│   └── PUT /preferences - обновить настройки
//	└── /accounts/
//	    ├── GET /{name} - статус аккаунта
//	    └── PUT /{name} - сохранить API ключи
//
// /ws/stream - WebSocket для real-time обновлений
// /metrics - Prometheus метрики
// /health - health check
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. Auth (только для /api/v1)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	// API v1 routes
	apiV1 := router.PathPrefix("/api/v1").Subrouter()
	if deps != nil {
		apiV1.Use(middleware.Auth(deps.APITokenHash))
	}

	// Guard routes
	if deps != nil && deps.GuardService != nil {
		guardHandler := handlers.NewGuardHandler(deps.GuardService)
		apiV1.HandleFunc("/guards", guardHandler.GetGuards).Methods("GET")
		apiV1.HandleFunc("/guards/auto-exit", guardHandler.SetAutoExit).Methods("PATCH")
		apiV1.HandleFunc("/guards/{symbol}", guardHandler.GetGuard).Methods("GET")
		apiV1.HandleFunc("/guards/{symbol}/sell", guardHandler.ManualSell).Methods("POST")
		apiV1.HandleFunc("/guards/{symbol}/pause", guardHandler.PauseGuard).Methods("POST")
		apiV1.HandleFunc("/guards/{symbol}/resume", guardHandler.ResumeGuard).Methods("POST")
	}

	// Risk routes
	if deps != nil && deps.RiskService != nil {
		riskHandler := handlers.NewRiskHandler(deps.RiskService)
		apiV1.HandleFunc("/risk", riskHandler.GetRiskManagement).Methods("GET")
		apiV1.HandleFunc("/risk", riskHandler.UpdateRiskManagement).Methods("PATCH")
		apiV1.HandleFunc("/stop-loss", riskHandler.GetStopLossList).Methods("GET")
		apiV1.HandleFunc("/stop-loss/{symbol}", riskHandler.SetStopLoss).Methods("PUT")
		apiV1.HandleFunc("/stop-loss/{symbol}", riskHandler.DeleteStopLoss).Methods("DELETE")
	}

	// Symbol routes
	if deps != nil && deps.SymbolService != nil {
		symbolHandler := handlers.NewSymbolHandler(deps.SymbolService)
		apiV1.HandleFunc("/symbols", symbolHandler.GetSymbols).Methods("GET")
		apiV1.HandleFunc("/symbols", symbolHandler.AddSymbol).Methods("POST")
		apiV1.HandleFunc("/symbols/{symbol}", symbolHandler.RemoveSymbol).Methods("DELETE")
	}

	// Notification routes
	if deps != nil && deps.NotificationService != nil {
		notificationHandler := handlers.NewNotificationHandler(deps.NotificationService)
		apiV1.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
		apiV1.HandleFunc("/notifications", notificationHandler.CleanupNotifications).Methods("DELETE")
		apiV1.HandleFunc("/notifications/preferences", notificationHandler.GetPreferences).Methods("GET")
		apiV1.HandleFunc("/notifications/preferences", notificationHandler.UpdatePreferences).Methods("PUT")
	}

	// Account routes
	if deps != nil && deps.AccountService != nil {
		accountHandler := handlers.NewAccountHandler(deps.AccountService)
		apiV1.HandleFunc("/accounts/{name}", accountHandler.GetAccount).Methods("GET")
		apiV1.HandleFunc("/accounts/{name}", accountHandler.SaveCredentials).Methods("PUT")
	}

	// WebSocket route
	if deps != nil && deps.WSHandler != nil {
		router.HandleFunc("/ws/stream", deps.WSHandler)
	}

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
