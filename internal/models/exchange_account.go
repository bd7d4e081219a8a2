package models

import "time"

// ExchangeAccount представляет биржевой аккаунт с API ключами.
// Ключи хранятся зашифрованными (AES-256-GCM) и не отдаются в JSON.
type ExchangeAccount struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"` // kraken, binance и т.п.
	APIKey    string    `json:"-" db:"api_key"`
	SecretKey string    `json:"-" db:"secret_key"`
	Connected bool      `json:"connected" db:"connected"`
	LastError string    `json:"last_error,omitempty" db:"last_error"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
