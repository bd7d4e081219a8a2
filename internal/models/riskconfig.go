package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Ошибки валидации конфигурационных значений
var (
	ErrInvalidFiatPercent = errors.New("fiat_wallet_percent_assigned must be within [0, 100]")
	ErrEmptySymbol        = errors.New("symbol must not be empty")
	ErrInvalidStopLoss    = errors.New("stop_loss_percent must be within (0, 100]")
)

// StopLossPercent - персональный stop-loss процент для символа.
// Уникален per symbol, хранится в БД.
type StopLossPercent struct {
	ID        int       `json:"id" db:"id"`
	Symbol    string    `json:"symbol" db:"symbol"`
	Percent   float64   `json:"percent" db:"percent"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validate проверяет допустимость значения процента
func (s *StopLossPercent) Validate() error {
	if strings.TrimSpace(s.Symbol) == "" {
		return ErrEmptySymbol
	}
	if s.Percent <= 0 || s.Percent > 100 {
		return fmt.Errorf("%w: got %v", ErrInvalidStopLoss, s.Percent)
	}
	return nil
}

// RiskManagement - глобальные риск-настройки (одна запись, id=1).
// FallbackStopLossPercent применяется для символов без персонального значения.
type RiskManagement struct {
	ID                      int       `json:"id" db:"id"`
	FallbackStopLossPercent float64   `json:"fallback_stop_loss_percent" db:"fallback_stop_loss_percent"`
	TakeProfitATRMultiplier float64   `json:"take_profit_atr_multiplier" db:"take_profit_atr_multiplier"`
	DefaultSellPercent      float64   `json:"default_sell_percent" db:"default_sell_percent"`
	UpdatedAt               time.Time `json:"updated_at" db:"updated_at"`
}

// GlobalFlag - именованный процесс-wide переключатель.
// Ядро только читает флаги, владеет ими конфигурационный слой.
type GlobalFlag struct {
	Name      string    `json:"name" db:"name"`
	Enabled   bool      `json:"enabled" db:"enabled"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Известные имена флагов
const (
	FlagAutoExitEnabled = "auto_exit_enabled"         // глобальное включение авто-выхода
	FlagAutoExitPrefix  = "auto_exit_enabled:"        // + symbol = персональный override
	FlagAutoBuyEnabled  = "auto_buy_trading_enabled"  // включение авто-покупки
)

// SymbolAutoExitFlag возвращает имя персонального флага авто-выхода для символа
func SymbolAutoExitFlag(symbol string) string {
	return FlagAutoExitPrefix + strings.ToUpper(strings.TrimSpace(symbol))
}

// AutoBuyTraderConfigItem - настройка авто-покупки для символа.
//
// Символ нормализуется (trim + upper). Невалидные значения - жёсткая
// ошибка конструирования, без молчаливого приведения.
type AutoBuyTraderConfigItem struct {
	Symbol                    string  `json:"symbol" db:"symbol"`
	FiatWalletPercentAssigned float64 `json:"fiat_wallet_percent_assigned" db:"fiat_wallet_percent_assigned"`
}

// NewAutoBuyTraderConfigItem валидирует и создаёт AutoBuyTraderConfigItem
func NewAutoBuyTraderConfigItem(symbol string, fiatWalletPercent float64) (AutoBuyTraderConfigItem, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return AutoBuyTraderConfigItem{}, ErrEmptySymbol
	}
	if fiatWalletPercent < 0 || fiatWalletPercent > 100 {
		return AutoBuyTraderConfigItem{}, fmt.Errorf("%w: got %v", ErrInvalidFiatPercent, fiatWalletPercent)
	}
	return AutoBuyTraderConfigItem{
		Symbol:                    normalized,
		FiatWalletPercentAssigned: fiatWalletPercent,
	}, nil
}
