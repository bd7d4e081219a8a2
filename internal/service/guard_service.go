package service

import (
	"context"
	"fmt"

	"stopguard/internal/models"
)

// GuardService - фасад над охранным ядром для API-слоя.
//
// Оборачивает операции планировщика и дополняет их уведомлениями
// и управлением флагами авто-выхода.
type GuardService struct {
	guard         GuardController
	flags         *FlagService
	notifications *NotificationService
}

// NewGuardService создаёт новый сервис охраны
func NewGuardService(guard GuardController, flags *FlagService, notifications *NotificationService) *GuardService {
	return &GuardService{
		guard:         guard,
		flags:         flags,
		notifications: notifications,
	}
}

// Statuses возвращает статусы охраны всех символов
func (s *GuardService) Statuses(ctx context.Context) []models.SymbolGuardStatus {
	return s.guard.Statuses(ctx)
}

// Status возвращает статус охраны одного символа
func (s *GuardService) Status(ctx context.Context, symbol string) (models.SymbolGuardStatus, bool) {
	return s.guard.Status(ctx, symbol)
}

// ManualSell принудительно продаёт охраняемую позицию символа.
//
// Снятие лимитного ордера и market-продажа идут тем же путём, что и
// автоматический выход. После успеха создаётся уведомление MANUAL_SELL.
func (s *GuardService) ManualSell(ctx context.Context, symbol string, percent float64) error {
	if err := s.guard.ManualSell(ctx, symbol, percent); err != nil {
		return err
	}
	if err := s.notifications.CreateManualSellNotification(
		symbol,
		fmt.Sprintf("Принудительная продажа %s: %.1f%% позиции", symbol, percent),
		map[string]interface{}{"percent": percent},
	); err != nil {
		return fmt.Errorf("manual sell executed, notification failed: %w", err)
	}
	return nil
}

// PauseSymbol выключает авто-выход для символа.
//
// Состояние охраны (ratchet safeguard stop) при этом сохраняется:
// планировщик пропускает оценку, но не сбрасывает ордер.
func (s *GuardService) PauseSymbol(symbol string) error {
	if err := s.flags.SetSymbolAutoExit(symbol, false); err != nil {
		return err
	}
	return s.notifications.CreatePauseNotification(
		symbol,
		fmt.Sprintf("Авто-выход для %s приостановлен", symbol),
	)
}

// ResumeSymbol включает авто-выход для символа
func (s *GuardService) ResumeSymbol(symbol string) error {
	return s.flags.SetSymbolAutoExit(symbol, true)
}

// SetGlobalAutoExit включает или выключает авто-выход глобально
func (s *GuardService) SetGlobalAutoExit(enabled bool) error {
	if err := s.flags.SetGlobalAutoExit(enabled); err != nil {
		return err
	}
	if !enabled {
		return s.notifications.CreatePauseNotification(
			"",
			"Авто-выход приостановлен для всех символов",
		)
	}
	return nil
}
