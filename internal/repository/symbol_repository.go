package repository

import (
	"context"
	"database/sql"
	"errors"

	"stopguard/internal/models"
)

// Ошибки репозитория символов
var (
	ErrSymbolNotFound = errors.New("symbol config not found")
)

// SymbolRepository - работа с таблицей auto_buy_config
// (отслеживаемые символы и их доли фиатного кошелька)
type SymbolRepository struct {
	db *sql.DB
}

// NewSymbolRepository создает новый экземпляр репозитория
func NewSymbolRepository(db *sql.DB) *SymbolRepository {
	return &SymbolRepository{db: db}
}

// GetAll возвращает конфигурацию всех отслеживаемых символов
func (r *SymbolRepository) GetAll() ([]models.AutoBuyTraderConfigItem, error) {
	rows, err := r.db.Query(`
		SELECT symbol, fiat_wallet_percent_assigned
		FROM auto_buy_config
		ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.AutoBuyTraderConfigItem
	for rows.Next() {
		var item models.AutoBuyTraderConfigItem
		if err := rows.Scan(&item.Symbol, &item.FiatWalletPercentAssigned); err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	return result, rows.Err()
}

// TrackedSymbols возвращает список отслеживаемых символов
func (r *SymbolRepository) TrackedSymbols() ([]string, error) {
	rows, err := r.db.Query(`SELECT symbol FROM auto_buy_config ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}

	return symbols, rows.Err()
}

// AddTracked добавляет символ в отслеживание и включает его флаг
// авто-выхода одной транзакцией: символ без флага охранялся бы молча
// выключенным, флаг без символа - висел бы сиротой.
func (r *SymbolRepository) AddTracked(ctx context.Context, item models.AutoBuyTraderConfigItem, autoExitFlag string) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := upsertSymbol(tx, item); err != nil {
			return err
		}
		return setFlag(tx, autoExitFlag, true)
	})
}

// RemoveTracked убирает символ из отслеживания и выключает его флаг
// авто-выхода одной транзакцией
func (r *SymbolRepository) RemoveTracked(ctx context.Context, symbol, autoExitFlag string) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := deleteSymbol(tx, symbol); err != nil {
			return err
		}
		return setFlag(tx, autoExitFlag, false)
	})
}

func upsertSymbol(e execer, item models.AutoBuyTraderConfigItem) error {
	query := `
		INSERT INTO auto_buy_config (symbol, fiat_wallet_percent_assigned)
		VALUES ($1, $2)
		ON CONFLICT (symbol)
		DO UPDATE SET fiat_wallet_percent_assigned = EXCLUDED.fiat_wallet_percent_assigned`

	_, err := e.Exec(query, item.Symbol, item.FiatWalletPercentAssigned)
	return err
}

func deleteSymbol(e execer, symbol string) error {
	result, err := e.Exec(`DELETE FROM auto_buy_config WHERE symbol = $1`, symbol)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSymbolNotFound
	}

	return nil
}
