package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"stopguard/internal/exchange"
	"stopguard/internal/models"
	"stopguard/pkg/crypto"
)

// Ошибки сервиса аккаунтов
var (
	ErrEmptyCredentials = errors.New("api key and secret must not be empty")
)

// AccountService управляет биржевыми аккаунтами.
//
// API-ключи шифруются AES-256-GCM перед сохранением в БД и
// расшифровываются только в момент подключения к бирже.
type AccountService struct {
	repo          AccountRepositoryInterface
	encryptionKey string
}

// NewAccountService создаёт новый сервис аккаунтов
func NewAccountService(repo AccountRepositoryInterface, encryptionKey string) *AccountService {
	return &AccountService{repo: repo, encryptionKey: encryptionKey}
}

// SaveCredentials шифрует и сохраняет API-ключи биржи
func (s *AccountService) SaveCredentials(name, apiKey, secretKey string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return models.ErrEmptySymbol
	}
	if apiKey == "" || secretKey == "" {
		return ErrEmptyCredentials
	}

	encryptedKey, err := crypto.EncryptWithKeyString(apiKey, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("encrypt api key: %w", err)
	}
	encryptedSecret, err := crypto.EncryptWithKeyString(secretKey, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("encrypt secret key: %w", err)
	}

	return s.repo.Upsert(&models.ExchangeAccount{
		Name:      name,
		APIKey:    encryptedKey,
		SecretKey: encryptedSecret,
		UpdatedAt: time.Now().UTC(),
	})
}

// GetAccount возвращает аккаунт без расшифровки ключей
func (s *AccountService) GetAccount(name string) (*models.ExchangeAccount, error) {
	return s.repo.GetByName(strings.ToLower(strings.TrimSpace(name)))
}

// Connect расшифровывает ключи аккаунта и подключает биржевой клиент.
// Результат подключения фиксируется в статусе аккаунта.
func (s *AccountService) Connect(ex exchange.Exchange) error {
	name := ex.GetName()

	acc, err := s.repo.GetByName(name)
	if err != nil {
		return fmt.Errorf("get account %s: %w", name, err)
	}

	apiKey, err := crypto.DecryptWithKeyString(acc.APIKey, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("decrypt api key: %w", err)
	}
	secretKey, err := crypto.DecryptWithKeyString(acc.SecretKey, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("decrypt secret key: %w", err)
	}

	if err := ex.Connect(apiKey, secretKey); err != nil {
		if stErr := s.repo.SetConnectionStatus(name, false, err.Error()); stErr != nil {
			return errors.Join(err, stErr)
		}
		return fmt.Errorf("connect to %s: %w", name, err)
	}

	return s.repo.SetConnectionStatus(name, true, "")
}
