package repository

import (
	"database/sql"
	"errors"
	"time"

	"stopguard/internal/models"
)

// Ошибки репозитория риск-настроек
var (
	ErrRiskManagementNotFound = errors.New("risk management settings not found")
)

// Дефолтные глобальные риск-настройки
const (
	defaultFallbackStopLossPercent = 5.0
	defaultTakeProfitATRMultiplier = 2.0
	defaultSellPercent             = 100.0
)

// RiskRepository - работа с таблицей risk_management (одна запись, id=1)
type RiskRepository struct {
	db *sql.DB

	// seedStopLossPercent - fallback stop-loss, которым засевается запись
	// при первом обращении (GUARD_FALLBACK_STOP_LOSS)
	seedStopLossPercent float64
}

// NewRiskRepository создает новый экземпляр репозитория.
// fallbackStopLossPercent задаёт стартовый глобальный stop-loss;
// значение вне (0, 100) заменяется дефолтом.
func NewRiskRepository(db *sql.DB, fallbackStopLossPercent float64) *RiskRepository {
	if fallbackStopLossPercent <= 0 || fallbackStopLossPercent >= 100 {
		fallbackStopLossPercent = defaultFallbackStopLossPercent
	}
	return &RiskRepository{db: db, seedStopLossPercent: fallbackStopLossPercent}
}

// Get возвращает глобальные риск-настройки, создавая запись с дефолтами
// при первом обращении
func (r *RiskRepository) Get() (*models.RiskManagement, error) {
	query := `
		SELECT id, fallback_stop_loss_percent, take_profit_atr_multiplier, default_sell_percent, updated_at
		FROM risk_management
		WHERE id = 1`

	rm := &models.RiskManagement{}
	err := r.db.QueryRow(query).Scan(
		&rm.ID,
		&rm.FallbackStopLossPercent,
		&rm.TakeProfitATRMultiplier,
		&rm.DefaultSellPercent,
		&rm.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.createDefault()
		}
		return nil, err
	}

	return rm, nil
}

// createDefault создаёт запись с дефолтными значениями
func (r *RiskRepository) createDefault() (*models.RiskManagement, error) {
	rm := &models.RiskManagement{
		ID:                      1,
		FallbackStopLossPercent: r.seedStopLossPercent,
		TakeProfitATRMultiplier: defaultTakeProfitATRMultiplier,
		DefaultSellPercent:      defaultSellPercent,
		UpdatedAt:               time.Now(),
	}

	query := `
		INSERT INTO risk_management (id, fallback_stop_loss_percent, take_profit_atr_multiplier, default_sell_percent, updated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.db.Exec(query,
		rm.FallbackStopLossPercent,
		rm.TakeProfitATRMultiplier,
		rm.DefaultSellPercent,
		rm.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return rm, nil
}

// Update обновляет глобальные риск-настройки
func (r *RiskRepository) Update(rm *models.RiskManagement) error {
	query := `
		UPDATE risk_management
		SET fallback_stop_loss_percent = $1, take_profit_atr_multiplier = $2, default_sell_percent = $3, updated_at = $4
		WHERE id = 1`

	rm.UpdatedAt = time.Now()

	result, err := r.db.Exec(query,
		rm.FallbackStopLossPercent,
		rm.TakeProfitATRMultiplier,
		rm.DefaultSellPercent,
		rm.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRiskManagementNotFound
	}

	return nil
}
