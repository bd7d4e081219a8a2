package service

import (
	"context"
	"errors"
	"testing"

	"stopguard/internal/models"
	"stopguard/internal/repository"
)

func newSymbolFixture() (*SymbolService, *MockSymbolRepository) {
	symbolRepo := NewMockSymbolRepository()
	svc := NewSymbolService(symbolRepo)
	return svc, symbolRepo
}

func TestSymbolService_Add_NormalizesAndEnablesFlag(t *testing.T) {
	svc, symbolRepo := newSymbolFixture()

	item, err := svc.Add(context.Background(), "  btcusd ", 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Symbol != "BTCUSD" {
		t.Errorf("expected normalized symbol BTCUSD, got %q", item.Symbol)
	}
	if _, exists := symbolRepo.items["BTCUSD"]; !exists {
		t.Error("symbol not persisted")
	}
	if !symbolRepo.flags[models.SymbolAutoExitFlag("BTCUSD")] {
		t.Error("per-symbol auto exit flag must be enabled with the symbol")
	}
}

func TestSymbolService_Add_InvalidPercent(t *testing.T) {
	svc, _ := newSymbolFixture()
	ctx := context.Background()

	if _, err := svc.Add(ctx, "BTCUSD", 101); !errors.Is(err, models.ErrInvalidFiatPercent) {
		t.Errorf("expected ErrInvalidFiatPercent, got %v", err)
	}
	if _, err := svc.Add(ctx, "", 10); !errors.Is(err, models.ErrEmptySymbol) {
		t.Errorf("expected ErrEmptySymbol, got %v", err)
	}
}

func TestSymbolService_Remove_DisablesFlag(t *testing.T) {
	svc, symbolRepo := newSymbolFixture()
	ctx := context.Background()

	if _, err := svc.Add(ctx, "BTCUSD", 25); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Remove(ctx, "BTCUSD"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, exists := symbolRepo.items["BTCUSD"]; exists {
		t.Error("symbol still persisted after remove")
	}
	if symbolRepo.flags[models.SymbolAutoExitFlag("BTCUSD")] {
		t.Error("per-symbol auto exit flag must be disabled with the symbol")
	}
}

func TestSymbolService_Remove_NotFound(t *testing.T) {
	svc, _ := newSymbolFixture()

	if err := svc.Remove(context.Background(), "NOPE"); !errors.Is(err, repository.ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestSymbolService_TrackedSymbols(t *testing.T) {
	svc, _ := newSymbolFixture()
	ctx := context.Background()

	if _, err := svc.Add(ctx, "BTCUSD", 25); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, "ETHUSD", 10); err != nil {
		t.Fatalf("add: %v", err)
	}

	symbols, err := svc.TrackedSymbols(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(symbols) != 2 {
		t.Errorf("expected 2 tracked symbols, got %d", len(symbols))
	}
}
