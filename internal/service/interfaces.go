package service

import (
	"context"
	"time"

	"stopguard/internal/guard"
	"stopguard/internal/models"
	"stopguard/internal/repository"
)

// StopLossRepositoryInterface определяет интерфейс репозитория стоп-лоссов
type StopLossRepositoryInterface interface {
	GetBySymbol(symbol string) (*models.StopLossPercent, error)
	GetAll() ([]*models.StopLossPercent, error)
	Upsert(sl *models.StopLossPercent) error
	Delete(symbol string) error
}

// RiskRepositoryInterface определяет интерфейс репозитория риск-настроек
type RiskRepositoryInterface interface {
	Get() (*models.RiskManagement, error)
	Update(rm *models.RiskManagement) error
}

// FlagRepositoryInterface определяет интерфейс репозитория флагов
type FlagRepositoryInterface interface {
	Get(name string) (bool, error)
	Set(name string, enabled bool) error
	GetAll() ([]*models.GlobalFlag, error)
}

// SymbolRepositoryInterface определяет интерфейс репозитория символов.
// AddTracked/RemoveTracked пишут символ и его флаг авто-выхода атомарно.
type SymbolRepositoryInterface interface {
	GetAll() ([]models.AutoBuyTraderConfigItem, error)
	TrackedSymbols() ([]string, error)
	AddTracked(ctx context.Context, item models.AutoBuyTraderConfigItem, autoExitFlag string) error
	RemoveTracked(ctx context.Context, symbol, autoExitFlag string) error
}

// NotificationRepositoryInterface определяет интерфейс репозитория уведомлений
type NotificationRepositoryInterface interface {
	Create(n *models.Notification) error
	GetRecent(limit int) ([]*models.Notification, error)
	DeleteOlderThan(threshold time.Time) (int64, error)
	GetPreferences() (*models.NotificationPreferences, error)
	UpdatePreferences(prefs models.NotificationPreferences) error
}

// AccountRepositoryInterface определяет интерфейс репозитория биржевых аккаунтов
type AccountRepositoryInterface interface {
	GetByName(name string) (*models.ExchangeAccount, error)
	Upsert(acc *models.ExchangeAccount) error
	SetConnectionStatus(name string, connected bool, lastError string) error
}

// GuardController - операции охранного ядра, доступные API-слою
type GuardController interface {
	Statuses(ctx context.Context) []models.SymbolGuardStatus
	Status(ctx context.Context, symbol string) (models.SymbolGuardStatus, bool)
	ManualSell(ctx context.Context, symbol string, percent float64) error
}

// Проверяем, что реальные репозитории реализуют интерфейсы
var _ StopLossRepositoryInterface = (*repository.StopLossRepository)(nil)
var _ RiskRepositoryInterface = (*repository.RiskRepository)(nil)
var _ FlagRepositoryInterface = (*repository.FlagRepository)(nil)
var _ SymbolRepositoryInterface = (*repository.SymbolRepository)(nil)
var _ NotificationRepositoryInterface = (*repository.NotificationRepository)(nil)
var _ AccountRepositoryInterface = (*repository.AccountRepository)(nil)
var _ GuardController = (*guard.Scheduler)(nil)

// ============ Service interfaces (для API handlers) ============

// GuardServiceInterface определяет интерфейс сервиса охраны
type GuardServiceInterface interface {
	Statuses(ctx context.Context) []models.SymbolGuardStatus
	Status(ctx context.Context, symbol string) (models.SymbolGuardStatus, bool)
	ManualSell(ctx context.Context, symbol string, percent float64) error
	PauseSymbol(symbol string) error
	ResumeSymbol(symbol string) error
	SetGlobalAutoExit(enabled bool) error
}

// RiskServiceInterface определяет интерфейс сервиса риск-настроек
type RiskServiceInterface interface {
	GetRiskManagement() (*models.RiskManagement, error)
	UpdateRiskManagement(rm *models.RiskManagement) error
	ListStopLoss() ([]*models.StopLossPercent, error)
	SetStopLoss(symbol string, percent float64) (*models.StopLossPercent, error)
	DeleteStopLoss(symbol string) error
}

// NotificationServiceInterface определяет интерфейс сервиса уведомлений
type NotificationServiceInterface interface {
	GetRecent(limit int) ([]*models.Notification, error)
	CleanupOlderThan(age time.Duration) (int64, error)
	GetPreferences() (*models.NotificationPreferences, error)
	UpdatePreferences(prefs models.NotificationPreferences) error
}

// SymbolServiceInterface определяет интерфейс сервиса символов
type SymbolServiceInterface interface {
	List() ([]models.AutoBuyTraderConfigItem, error)
	Add(ctx context.Context, symbol string, fiatWalletPercent float64) (models.AutoBuyTraderConfigItem, error)
	Remove(ctx context.Context, symbol string) error
}

// AccountServiceInterface определяет интерфейс сервиса биржевых аккаунтов
type AccountServiceInterface interface {
	SaveCredentials(name, apiKey, secretKey string) error
	GetAccount(name string) (*models.ExchangeAccount, error)
}

var _ GuardServiceInterface = (*GuardService)(nil)
var _ RiskServiceInterface = (*RiskService)(nil)
var _ NotificationServiceInterface = (*NotificationService)(nil)
var _ SymbolServiceInterface = (*SymbolService)(nil)
var _ AccountServiceInterface = (*AccountService)(nil)
