package repository

import (
	"database/sql"
	"errors"
	"time"

	"stopguard/internal/models"
)

// Ошибки репозитория стоп-лоссов
var (
	ErrStopLossNotFound = errors.New("stop loss percent not found")
)

// StopLossRepository - работа с таблицей stop_loss_percents
type StopLossRepository struct {
	db *sql.DB
}

// NewStopLossRepository создает новый экземпляр репозитория
func NewStopLossRepository(db *sql.DB) *StopLossRepository {
	return &StopLossRepository{db: db}
}

// GetBySymbol возвращает персональный процент стоп-лосса символа
func (r *StopLossRepository) GetBySymbol(symbol string) (*models.StopLossPercent, error) {
	query := `
		SELECT id, symbol, percent, updated_at, created_at
		FROM stop_loss_percents
		WHERE symbol = $1`

	sl := &models.StopLossPercent{}
	err := r.db.QueryRow(query, symbol).Scan(
		&sl.ID,
		&sl.Symbol,
		&sl.Percent,
		&sl.UpdatedAt,
		&sl.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStopLossNotFound
		}
		return nil, err
	}

	return sl, nil
}

// GetAll возвращает все персональные проценты стоп-лосса
func (r *StopLossRepository) GetAll() ([]*models.StopLossPercent, error) {
	query := `
		SELECT id, symbol, percent, updated_at, created_at
		FROM stop_loss_percents
		ORDER BY symbol`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.StopLossPercent
	for rows.Next() {
		sl := &models.StopLossPercent{}
		if err := rows.Scan(&sl.ID, &sl.Symbol, &sl.Percent, &sl.UpdatedAt, &sl.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, sl)
	}

	return result, rows.Err()
}

// Upsert создаёт или обновляет персональный процент символа
func (r *StopLossRepository) Upsert(sl *models.StopLossPercent) error {
	if err := sl.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO stop_loss_percents (symbol, percent, updated_at, created_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (symbol)
		DO UPDATE SET percent = EXCLUDED.percent, updated_at = EXCLUDED.updated_at
		RETURNING id`

	now := time.Now()
	sl.UpdatedAt = now
	if err := r.db.QueryRow(query, sl.Symbol, sl.Percent, now).Scan(&sl.ID); err != nil {
		return err
	}
	return nil
}

// Delete удаляет персональный процент символа (символ вернётся к fallback)
func (r *StopLossRepository) Delete(symbol string) error {
	result, err := r.db.Exec(`DELETE FROM stop_loss_percents WHERE symbol = $1`, symbol)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStopLossNotFound
	}

	return nil
}
