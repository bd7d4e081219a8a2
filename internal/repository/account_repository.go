package repository

import (
	"database/sql"
	"errors"
	"time"

	"stopguard/internal/models"
)

// Ошибки репозитория биржевых аккаунтов
var (
	ErrAccountNotFound = errors.New("exchange account not found")
)

// AccountRepository - работа с таблицей exchange_accounts.
// API ключи приходят сюда уже зашифрованными (pkg/crypto).
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository создает новый экземпляр репозитория
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByName возвращает аккаунт биржи по имени
func (r *AccountRepository) GetByName(name string) (*models.ExchangeAccount, error) {
	query := `
		SELECT id, name, api_key, secret_key, connected, last_error, updated_at, created_at
		FROM exchange_accounts
		WHERE name = $1`

	acc := &models.ExchangeAccount{}
	err := r.db.QueryRow(query, name).Scan(
		&acc.ID,
		&acc.Name,
		&acc.APIKey,
		&acc.SecretKey,
		&acc.Connected,
		&acc.LastError,
		&acc.UpdatedAt,
		&acc.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return acc, nil
}

// Upsert создаёт или обновляет аккаунт биржи
func (r *AccountRepository) Upsert(acc *models.ExchangeAccount) error {
	query := `
		INSERT INTO exchange_accounts (name, api_key, secret_key, connected, last_error, updated_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (name)
		DO UPDATE SET api_key = EXCLUDED.api_key, secret_key = EXCLUDED.secret_key,
			connected = EXCLUDED.connected, last_error = EXCLUDED.last_error,
			updated_at = EXCLUDED.updated_at
		RETURNING id`

	now := time.Now()
	acc.UpdatedAt = now
	return r.db.QueryRow(query,
		acc.Name,
		acc.APIKey,
		acc.SecretKey,
		acc.Connected,
		acc.LastError,
		now,
	).Scan(&acc.ID)
}

// SetConnectionStatus обновляет статус подключения аккаунта
func (r *AccountRepository) SetConnectionStatus(name string, connected bool, lastError string) error {
	result, err := r.db.Exec(`
		UPDATE exchange_accounts
		SET connected = $1, last_error = $2, updated_at = $3
		WHERE name = $4`,
		connected, lastError, time.Now(), name)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}
