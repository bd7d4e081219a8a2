package service

import (
	"context"
	"errors"
	"fmt"

	"stopguard/internal/guard"
	"stopguard/internal/models"
	"stopguard/internal/repository"
)

// RiskService управляет риск-настройками: персональными stop-loss
// процентами и глобальными fallback-значениями.
//
// Реализует guard.StopLossProvider: планировщик запрашивает действующий
// процент для символа на каждом цикле оценки.
type RiskService struct {
	stopLoss StopLossRepositoryInterface
	risk     RiskRepositoryInterface
}

var _ guard.StopLossProvider = (*RiskService)(nil)

// NewRiskService создаёт новый сервис риск-настроек
func NewRiskService(stopLoss StopLossRepositoryInterface, risk RiskRepositoryInterface) *RiskService {
	return &RiskService{stopLoss: stopLoss, risk: risk}
}

// PercentFor возвращает действующий stop-loss процент для символа.
// Персональное значение имеет приоритет, иначе глобальный fallback.
func (s *RiskService) PercentFor(ctx context.Context, symbol string) (float64, error) {
	sl, err := s.stopLoss.GetBySymbol(symbol)
	if err == nil {
		return sl.Percent, nil
	}
	if !errors.Is(err, repository.ErrStopLossNotFound) {
		return 0, fmt.Errorf("get stop loss for %s: %w", symbol, err)
	}

	rm, err := s.risk.Get()
	if err != nil {
		return 0, fmt.Errorf("get risk management: %w", err)
	}
	return rm.FallbackStopLossPercent, nil
}

// GetRiskManagement возвращает глобальные риск-настройки
func (s *RiskService) GetRiskManagement() (*models.RiskManagement, error) {
	return s.risk.Get()
}

// UpdateRiskManagement обновляет глобальные риск-настройки с валидацией
func (s *RiskService) UpdateRiskManagement(rm *models.RiskManagement) error {
	if rm.FallbackStopLossPercent <= 0 || rm.FallbackStopLossPercent > 100 {
		return fmt.Errorf("%w: got %v", models.ErrInvalidStopLoss, rm.FallbackStopLossPercent)
	}
	if rm.TakeProfitATRMultiplier <= 0 {
		return fmt.Errorf("take_profit_atr_multiplier must be positive, got %v", rm.TakeProfitATRMultiplier)
	}
	if rm.DefaultSellPercent <= 0 || rm.DefaultSellPercent > 100 {
		return fmt.Errorf("default_sell_percent must be within (0, 100], got %v", rm.DefaultSellPercent)
	}
	return s.risk.Update(rm)
}

// ListStopLoss возвращает все персональные stop-loss настройки
func (s *RiskService) ListStopLoss() ([]*models.StopLossPercent, error) {
	return s.stopLoss.GetAll()
}

// SetStopLoss создаёт или обновляет персональный stop-loss для символа
func (s *RiskService) SetStopLoss(symbol string, percent float64) (*models.StopLossPercent, error) {
	sl := &models.StopLossPercent{Symbol: symbol, Percent: percent}
	if err := s.stopLoss.Upsert(sl); err != nil {
		return nil, err
	}
	return sl, nil
}

// DeleteStopLoss удаляет персональный stop-loss; символ возвращается
// к глобальному fallback-значению
func (s *RiskService) DeleteStopLoss(symbol string) error {
	return s.stopLoss.Delete(symbol)
}
