package service

import (
	"context"

	"stopguard/internal/guard"
	"stopguard/internal/models"
)

// SymbolService управляет списком отслеживаемых символов.
//
// Реализует guard.SymbolProvider: планировщик получает список символов
// в начале каждого цикла.
type SymbolService struct {
	repo SymbolRepositoryInterface
}

var _ guard.SymbolProvider = (*SymbolService)(nil)

// NewSymbolService создаёт новый сервис символов
func NewSymbolService(repo SymbolRepositoryInterface) *SymbolService {
	return &SymbolService{repo: repo}
}

// TrackedSymbols возвращает символы, подлежащие охране
func (s *SymbolService) TrackedSymbols(ctx context.Context) ([]string, error) {
	return s.repo.TrackedSymbols()
}

// List возвращает полные настройки всех отслеживаемых символов
func (s *SymbolService) List() ([]models.AutoBuyTraderConfigItem, error) {
	return s.repo.GetAll()
}

// Add добавляет символ в отслеживание. Персональный флаг авто-выхода
// создаётся включённым, чтобы охрана начиналась сразу; символ и флаг
// пишутся одной транзакцией.
func (s *SymbolService) Add(ctx context.Context, symbol string, fiatWalletPercent float64) (models.AutoBuyTraderConfigItem, error) {
	item, err := models.NewAutoBuyTraderConfigItem(symbol, fiatWalletPercent)
	if err != nil {
		return models.AutoBuyTraderConfigItem{}, err
	}
	if err := s.repo.AddTracked(ctx, item, models.SymbolAutoExitFlag(item.Symbol)); err != nil {
		return models.AutoBuyTraderConfigItem{}, err
	}
	return item, nil
}

// Remove убирает символ из отслеживания и выключает его флаг авто-выхода
// той же транзакцией
func (s *SymbolService) Remove(ctx context.Context, symbol string) error {
	return s.repo.RemoveTracked(ctx, symbol, models.SymbolAutoExitFlag(symbol))
}
