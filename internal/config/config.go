package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"stopguard/pkg/crypto"
)

// Config - корневая конфигурация приложения.
// Все значения читаются из переменных окружения с разумными дефолтами.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Security SecurityConfig
	Guard    GuardConfig
	Exchange ExchangeConfig
}

// ServerConfig - настройки HTTP-сервера
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// SecurityConfig - ключи шифрования и аутентификация API.
// APITokenHash - bcrypt-хеш токена доступа к API; пустое значение
// отключает проверку токена (допустимо только в разработке).
type SecurityConfig struct {
	EncryptionKey string
	APITokenHash  string
}

// GuardConfig - параметры защитного контура позиций: расписание
// обхода символов, периоды индикаторов и пороги принятия решений.
type GuardConfig struct {
	TickInterval       time.Duration
	WorkerPoolSize     int
	EvalTimeout        time.Duration
	CandleFetchLimit   int
	RSIPeriod          int
	ATRPeriod          int
	EMAPeriod          int
	RSIOversold        float64
	RSIOverbought      float64
	TakeProfitATRMult  float64
	DivergenceLookback int
	ConfirmTimeout     time.Duration
	ConfirmPollEvery   time.Duration
	DefaultSellPercent float64
	FallbackStopLoss   float64
}

// ExchangeConfig - параметры клиента биржи
type ExchangeConfig struct {
	Name           string
	RequestTimeout time.Duration
	RateLimit      int
	RateBurst      int
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Name:         getEnv("DB_NAME", "stopguard"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnLifetime: getEnvAsDuration("DB_CONN_LIFETIME", 5*time.Minute),
		},
		Security: SecurityConfig{
			EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
			APITokenHash:  getEnv("API_TOKEN_HASH", ""),
		},
		Guard: GuardConfig{
			TickInterval:       getEnvAsDuration("GUARD_TICK_INTERVAL", time.Minute),
			WorkerPoolSize:     getEnvAsInt("GUARD_WORKER_POOL_SIZE", 4),
			EvalTimeout:        getEnvAsDuration("GUARD_EVAL_TIMEOUT", 30*time.Second),
			CandleFetchLimit:   getEnvAsInt("GUARD_CANDLE_FETCH_LIMIT", 120),
			RSIPeriod:          getEnvAsInt("GUARD_RSI_PERIOD", 14),
			ATRPeriod:          getEnvAsInt("GUARD_ATR_PERIOD", 14),
			EMAPeriod:          getEnvAsInt("GUARD_EMA_PERIOD", 50),
			RSIOversold:        getEnvAsFloat("GUARD_RSI_OVERSOLD", 30),
			RSIOverbought:      getEnvAsFloat("GUARD_RSI_OVERBOUGHT", 70),
			TakeProfitATRMult:  getEnvAsFloat("GUARD_TAKE_PROFIT_ATR_MULT", 2.0),
			DivergenceLookback: getEnvAsInt("GUARD_DIVERGENCE_LOOKBACK", 1),
			ConfirmTimeout:     getEnvAsDuration("GUARD_CONFIRM_TIMEOUT", 30*time.Second),
			ConfirmPollEvery:   getEnvAsDuration("GUARD_CONFIRM_POLL_EVERY", time.Second),
			DefaultSellPercent: getEnvAsFloat("GUARD_DEFAULT_SELL_PERCENT", 100),
			FallbackStopLoss:   getEnvAsFloat("GUARD_FALLBACK_STOP_LOSS", 5),
		},
		Exchange: ExchangeConfig{
			Name:           getEnv("EXCHANGE_NAME", "paper"),
			RequestTimeout: getEnvAsDuration("EXCHANGE_REQUEST_TIMEOUT", 10*time.Second),
			RateLimit:      getEnvAsInt("EXCHANGE_RATE_LIMIT", 10),
			RateBurst:      getEnvAsInt("EXCHANGE_RATE_BURST", 20),
			MaxRetries:     getEnvAsInt("EXCHANGE_MAX_RETRIES", 3),
			RetryBaseDelay: getEnvAsDuration("EXCHANGE_RETRY_BASE_DELAY", 500*time.Millisecond),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate проверяет корректность конфигурации
func (c *Config) validate() error {
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateRanges()
}

func (c *Config) validateSecurity() error {
	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY не задан")
	}
	if err := crypto.ValidateKey([]byte(c.Security.EncryptionKey)); err != nil {
		return fmt.Errorf("ENCRYPTION_KEY: %w (получено %d байт)", err, len(c.Security.EncryptionKey))
	}
	return nil
}

func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("некорректный SERVER_PORT: %d", c.Server.Port)
	}
	if c.Guard.TickInterval <= 0 {
		return fmt.Errorf("GUARD_TICK_INTERVAL должен быть положительным")
	}
	if c.Guard.WorkerPoolSize < 1 {
		return fmt.Errorf("GUARD_WORKER_POOL_SIZE должен быть не меньше 1")
	}
	if c.Guard.RSIPeriod < 2 || c.Guard.ATRPeriod < 1 || c.Guard.EMAPeriod < 1 {
		return fmt.Errorf("периоды индикаторов должны быть положительными (RSI >= 2)")
	}
	if c.Guard.RSIOversold <= 0 || c.Guard.RSIOverbought >= 100 || c.Guard.RSIOversold >= c.Guard.RSIOverbought {
		return fmt.Errorf("некорректные пороги RSI: oversold=%.1f overbought=%.1f", c.Guard.RSIOversold, c.Guard.RSIOverbought)
	}
	if c.Guard.TakeProfitATRMult <= 0 {
		return fmt.Errorf("GUARD_TAKE_PROFIT_ATR_MULT должен быть положительным")
	}
	if c.Guard.DefaultSellPercent <= 0 || c.Guard.DefaultSellPercent > 100 {
		return fmt.Errorf("GUARD_DEFAULT_SELL_PERCENT должен быть в диапазоне (0, 100]")
	}
	if c.Guard.FallbackStopLoss <= 0 || c.Guard.FallbackStopLoss >= 100 {
		return fmt.Errorf("GUARD_FALLBACK_STOP_LOSS должен быть в диапазоне (0, 100)")
	}
	if c.Guard.CandleFetchLimit < c.Guard.EMAPeriod+1 {
		return fmt.Errorf("GUARD_CANDLE_FETCH_LIMIT (%d) мал для EMA периода %d", c.Guard.CandleFetchLimit, c.Guard.EMAPeriod)
	}
	if c.Exchange.RateLimit < 1 || c.Exchange.RateBurst < 1 {
		return fmt.Errorf("лимиты запросов к бирже должны быть не меньше 1")
	}
	return nil
}

// DSN возвращает строку подключения к PostgreSQL
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логов)
func (d *DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// getEnv читает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
