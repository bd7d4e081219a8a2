package repository

import (
	"database/sql"
	"errors"
	"time"

	"stopguard/internal/models"
)

// FlagRepository - работа с таблицей global_flags
type FlagRepository struct {
	db *sql.DB
}

// NewFlagRepository создает новый экземпляр репозитория
func NewFlagRepository(db *sql.DB) *FlagRepository {
	return &FlagRepository{db: db}
}

// Get возвращает состояние флага. Неизвестный флаг считается выключенным.
func (r *FlagRepository) Get(name string) (bool, error) {
	var enabled bool
	err := r.db.QueryRow(`SELECT enabled FROM global_flags WHERE name = $1`, name).Scan(&enabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return enabled, nil
}

// Set создаёт или обновляет флаг
func (r *FlagRepository) Set(name string, enabled bool) error {
	return setFlag(r.db, name, enabled)
}

// setFlag пишет флаг через произвольный executor: сам репозиторий или
// чужая транзакция (атомарное добавление символа вместе с его флагом)
func setFlag(e execer, name string, enabled bool) error {
	query := `
		INSERT INTO global_flags (name, enabled, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name)
		DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at`

	_, err := e.Exec(query, name, enabled, time.Now())
	return err
}

// GetAll возвращает все флаги
func (r *FlagRepository) GetAll() ([]*models.GlobalFlag, error) {
	rows, err := r.db.Query(`SELECT name, enabled, updated_at FROM global_flags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.GlobalFlag
	for rows.Next() {
		f := &models.GlobalFlag{}
		if err := rows.Scan(&f.Name, &f.Enabled, &f.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}

	return result, rows.Err()
}
