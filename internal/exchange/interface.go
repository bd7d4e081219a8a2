// Package exchange определяет унифицированный интерфейс внешних коллабораторов
// ядра: рыночные данные, история аккаунта и операции с ордерами.
package exchange

import (
	"context"
	"errors"
	"time"

	"stopguard/internal/models"
)

// Exchange определяет унифицированный интерфейс для работы с биржей.
//
// Ядро охраны позиций не знает деталей wire-формата конкретной биржи:
// адаптеры реализуют этот интерфейс снаружи.
type Exchange interface {
	// Connect устанавливает соединение с биржей
	Connect(apiKey, secret string) error

	// GetName возвращает имя биржи
	GetName() string

	// GetCandles возвращает последние limit свечей (старые → новые),
	// последняя свеча - формирующаяся
	GetCandles(ctx context.Context, symbol string, timeframe models.Timeframe, limit int) ([]models.Candle, error)

	// GetTicker возвращает текущую цену актива
	GetTicker(ctx context.Context, symbol string) (*Ticker, error)

	// GetTradeHistory возвращает историю сделок по символу (старые → новые)
	GetTradeHistory(ctx context.Context, symbol string) ([]models.Trade, error)

	// GetWalletBalances возвращает балансы торгового кошелька
	GetWalletBalances(ctx context.Context) ([]models.TradingWalletBalance, error)

	// GetOpenOrders возвращает открытые ордера по символу
	GetOpenOrders(ctx context.Context, symbol string) ([]*models.LimitSellOrder, error)

	// GetOrder возвращает статус ордера по id
	GetOrder(ctx context.Context, orderID string) (*models.LimitSellOrder, error)

	// PlaceLimitSellOrder размещает отложенный ордер на продажу
	PlaceLimitSellOrder(ctx context.Context, symbol string, amount, price float64) (*models.LimitSellOrder, error)

	// PlaceMarketSellOrder размещает рыночную продажу, amount в базовой валюте.
	// Возвращает id созданного ордера.
	PlaceMarketSellOrder(ctx context.Context, symbol string, amount float64) (string, error)

	// CancelOrder снимает ордер по id
	CancelOrder(ctx context.Context, orderID string) error

	// Close закрывает соединения с биржей
	Close() error
}

// Ticker содержит информацию о текущей цене
type Ticker struct {
	Symbol    string    `json:"symbol"`
	BidPrice  float64   `json:"bid_price"`  // лучшая цена покупки
	AskPrice  float64   `json:"ask_price"`  // лучшая цена продажи
	LastPrice float64   `json:"last_price"` // последняя сделка
	Timestamp time.Time `json:"timestamp"`
}

// ErrOrderNotFound возвращается биржей, когда ордер с указанным id не существует
var ErrOrderNotFound = errors.New("order not found")

// Коды классификации ошибок биржи
const (
	ErrCodeTimeout             = "timeout"
	ErrCodeRateLimit           = "rate_limit"
	ErrCodeServerError         = "server_error" // 5xx
	ErrCodeAuth                = "auth"
	ErrCodeInvalidSymbol       = "invalid_symbol"
	ErrCodeInsufficientBalance = "insufficient_balance"
	ErrCodePriceOutOfBounds    = "price_out_of_bounds"
)

// ExchangeError представляет ошибку от биржи с классификацией
// transient/permanent для retry-логики
type ExchangeError struct {
	Exchange string
	Code     string
	Message  string
	Original error
}

func (e *ExchangeError) Error() string {
	return e.Exchange + ": " + e.Message
}

// Unwrap возвращает оригинальную ошибку для поддержки errors.Is() и errors.As()
func (e *ExchangeError) Unwrap() error {
	return e.Original
}

// Retryable возвращает true для временных ошибок (timeout, rate-limit, 5xx).
// Постоянные ошибки (auth, невалидный символ, отклонённый ордер) не retry'ятся.
func (e *ExchangeError) Retryable() bool {
	switch e.Code {
	case ErrCodeTimeout, ErrCodeRateLimit, ErrCodeServerError:
		return true
	default:
		return false
	}
}

// IsPermanent проверяет, является ли ошибка постоянной ошибкой биржи
func IsPermanent(err error) bool {
	var exchErr *ExchangeError
	if errors.As(err, &exchErr) {
		return !exchErr.Retryable()
	}
	return false
}
