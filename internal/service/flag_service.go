package service

import (
	"context"
	"fmt"
	"strings"

	"stopguard/internal/guard"
	"stopguard/internal/models"
)

// FlagService управляет глобальными флагами процесса.
//
// Реализует guard.FlagProvider: планировщик читает флаги авто-выхода
// перед каждой оценкой символа.
type FlagService struct {
	repo FlagRepositoryInterface
}

var _ guard.FlagProvider = (*FlagService)(nil)

// NewFlagService создаёт новый сервис флагов
func NewFlagService(repo FlagRepositoryInterface) *FlagService {
	return &FlagService{repo: repo}
}

// IsEnabled возвращает состояние флага. Отсутствующий флаг считается
// выключенным; персональный флаг авто-выхода создаётся включённым при
// добавлении символа в отслеживание.
func (s *FlagService) IsEnabled(ctx context.Context, name string) (bool, error) {
	enabled, err := s.repo.Get(name)
	if err != nil {
		return false, fmt.Errorf("get flag %s: %w", name, err)
	}
	return enabled, nil
}

// SetGlobalAutoExit включает или выключает авто-выход для всех символов
func (s *FlagService) SetGlobalAutoExit(enabled bool) error {
	return s.repo.Set(models.FlagAutoExitEnabled, enabled)
}

// SetSymbolAutoExit включает или выключает авто-выход для одного символа
func (s *FlagService) SetSymbolAutoExit(symbol string, enabled bool) error {
	if strings.TrimSpace(symbol) == "" {
		return models.ErrEmptySymbol
	}
	return s.repo.Set(models.SymbolAutoExitFlag(symbol), enabled)
}

// SetAutoBuy включает или выключает авто-покупку
func (s *FlagService) SetAutoBuy(enabled bool) error {
	return s.repo.Set(models.FlagAutoBuyEnabled, enabled)
}

// List возвращает все флаги
func (s *FlagService) List() ([]*models.GlobalFlag, error) {
	return s.repo.GetAll()
}
