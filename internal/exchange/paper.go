package exchange

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"time"

	"stopguard/internal/models"
)

func init() {
	Register("paper", func(*HTTPClient) Exchange { return NewPaper() })
}

// Paper - симулятор биржи в памяти для разработки и ручной проверки.
//
// Цены детерминированно выводятся из хэша (symbol, timeframe, open_time),
// поэтому последовательные запросы свечей согласованы между собой. Ордера
// и сделки живут в памяти процесса. Рыночная продажа исполняется мгновенно
// по текущей цене.
type Paper struct {
	apiKey    string
	secretKey string

	mu       sync.Mutex
	seq      int
	orders   map[string]*models.LimitSellOrder
	trades   map[string][]models.Trade
	balances map[string]float64 // symbol -> доступный объём базовой валюты
}

var _ Exchange = (*Paper)(nil)

// NewPaper создаёт симулятор биржи
func NewPaper() *Paper {
	return &Paper{
		orders:   make(map[string]*models.LimitSellOrder),
		trades:   make(map[string][]models.Trade),
		balances: make(map[string]float64),
	}
}

func (p *Paper) Connect(apiKey, secret string) error {
	p.apiKey = apiKey
	p.secretKey = secret
	return nil
}

func (p *Paper) GetName() string {
	return "paper"
}

// basePrice выводит опорную цену символа из его хэша
func basePrice(symbol string) float64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(symbol)))
	return 50 + float64(h.Sum64()%100000)/100 // 50 .. 1050
}

// noise - детерминированный псевдошум в диапазоне [-1, 1)
func noise(symbol string, tf models.Timeframe, unix int64) float64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d", strings.ToUpper(symbol), tf, unix)
	return float64(h.Sum64()%2000)/1000 - 1
}

// candleAt строит свечу символа на границе openTime
func candleAt(symbol string, tf models.Timeframe, openTime time.Time, forming bool) models.Candle {
	base := basePrice(symbol)
	unix := openTime.Unix()

	// Медленная суточная волна плюс шум на каждую свечу
	wave := math.Sin(float64(unix%86400)/86400*2*math.Pi) * 0.01
	open := base * (1 + wave + noise(symbol, tf, unix)*0.005)
	close := open * (1 + noise(symbol, tf, unix+1)*0.01)

	high := math.Max(open, close) * 1.002
	low := math.Min(open, close) * 0.998
	volume := 10 + math.Abs(noise(symbol, tf, unix+2))*100

	return models.Candle{
		Symbol:    symbol,
		Timeframe: tf,
		OpenTime:  openTime,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
		Forming:   forming,
	}
}

func (p *Paper) GetCandles(ctx context.Context, symbol string, timeframe models.Timeframe, limit int) ([]models.Candle, error) {
	if !timeframe.Valid() {
		return nil, &ExchangeError{Exchange: "paper", Code: ErrCodeInvalidSymbol, Message: fmt.Sprintf("unknown timeframe %s", timeframe)}
	}
	if limit <= 0 {
		return nil, nil
	}

	period := timeframe.Duration()
	formingOpen := time.Now().UTC().Truncate(period)

	candles := make([]models.Candle, 0, limit)
	for i := limit - 1; i >= 0; i-- {
		openTime := formingOpen.Add(-time.Duration(i) * period)
		candles = append(candles, candleAt(symbol, timeframe, openTime, i == 0))
	}
	return candles, nil
}

// lastPrice возвращает текущую цену символа (close формирующейся 1h свечи)
func lastPrice(symbol string) float64 {
	open := time.Now().UTC().Truncate(time.Hour)
	return candleAt(symbol, models.Timeframe1h, open, true).Close
}

func (p *Paper) GetTicker(ctx context.Context, symbol string) (*Ticker, error) {
	price := lastPrice(symbol)
	return &Ticker{
		Symbol:    symbol,
		BidPrice:  price * 0.9995,
		AskPrice:  price * 1.0005,
		LastPrice: price,
		Timestamp: time.Now().UTC(),
	}, nil
}

// GetTradeHistory возвращает сделки символа. При первом обращении
// синтезируется стартовая покупка, чтобы у позиции была цена входа.
func (p *Paper) GetTradeHistory(ctx context.Context, symbol string) ([]models.Trade, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, seen := p.trades[symbol]; !seen {
		price := lastPrice(symbol)
		amount := 1.0
		p.trades[symbol] = []models.Trade{{
			ID:        p.nextID(),
			Symbol:    symbol,
			Side:      models.SideBuy,
			Price:     price,
			Amount:    amount,
			FeeAmount: amount * 0.001,
		}}
		p.balances[symbol] = amount * 0.999
	}

	out := make([]models.Trade, len(p.trades[symbol]))
	copy(out, p.trades[symbol])
	return out, nil
}

func (p *Paper) GetWalletBalances(ctx context.Context) ([]models.TradingWalletBalance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	blocked := make(map[string]float64)
	for _, o := range p.orders {
		if !models.OrderTerminal(o.Status) {
			blocked[o.Symbol] += o.Amount - o.FilledAmt
		}
	}

	balances := make([]models.TradingWalletBalance, 0, len(p.balances))
	for symbol, free := range p.balances {
		balances = append(balances, models.TradingWalletBalance{
			Currency:       symbol,
			Balance:        free,
			BlockedBalance: blocked[symbol],
		})
	}
	return balances, nil
}

func (p *Paper) GetOpenOrders(ctx context.Context, symbol string) ([]*models.LimitSellOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var open []*models.LimitSellOrder
	for _, o := range p.orders {
		if o.Symbol == symbol && !models.OrderTerminal(o.Status) {
			cp := *o
			open = append(open, &cp)
		}
	}
	return open, nil
}

func (p *Paper) GetOrder(ctx context.Context, orderID string) (*models.LimitSellOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (p *Paper) PlaceLimitSellOrder(ctx context.Context, symbol string, amount, price float64) (*models.LimitSellOrder, error) {
	if amount <= 0 || price <= 0 {
		return nil, &ExchangeError{Exchange: "paper", Code: ErrCodePriceOutOfBounds, Message: "amount and price must be positive"}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.balances[symbol] < amount {
		return nil, &ExchangeError{Exchange: "paper", Code: ErrCodeInsufficientBalance,
			Message: fmt.Sprintf("have %.8f %s, want %.8f", p.balances[symbol], symbol, amount)}
	}
	p.balances[symbol] -= amount

	now := time.Now().UTC()
	order := &models.LimitSellOrder{
		ID:        p.nextID(),
		Symbol:    symbol,
		Price:     price,
		Amount:    amount,
		Status:    models.OrderStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.orders[order.ID] = order

	cp := *order
	return &cp, nil
}

func (p *Paper) PlaceMarketSellOrder(ctx context.Context, symbol string, amount float64) (string, error) {
	if amount <= 0 {
		return "", &ExchangeError{Exchange: "paper", Code: ErrCodePriceOutOfBounds, Message: "amount must be positive"}
	}
	price := lastPrice(symbol)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.balances[symbol] < amount {
		return "", &ExchangeError{Exchange: "paper", Code: ErrCodeInsufficientBalance,
			Message: fmt.Sprintf("have %.8f %s, want %.8f", p.balances[symbol], symbol, amount)}
	}
	p.balances[symbol] -= amount

	now := time.Now().UTC()
	order := &models.LimitSellOrder{
		ID:        p.nextID(),
		Symbol:    symbol,
		Price:     price,
		Amount:    amount,
		FilledAmt: amount,
		Status:    models.OrderStatusFilled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.orders[order.ID] = order

	orderID := order.ID
	p.trades[symbol] = append(p.trades[symbol], models.Trade{
		ID:        p.nextID(),
		Symbol:    symbol,
		Side:      models.SideSell,
		OrderID:   &orderID,
		Price:     price,
		Amount:    amount,
		FeeAmount: amount * 0.001,
	})

	return order.ID, nil
}

func (p *Paper) CancelOrder(ctx context.Context, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if models.OrderTerminal(o.Status) {
		// Снятие уже завершённого ордера идемпотентно
		return nil
	}

	// Зарезервированный остаток возвращается в свободный баланс
	p.balances[o.Symbol] += o.Amount - o.FilledAmt
	if o.FilledAmt > 0 {
		o.Status = models.OrderStatusPartiallyCancelled
	} else {
		o.Status = models.OrderStatusCancelled
	}
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (p *Paper) Close() error {
	return nil
}

// nextID выдаёт следующий id ордера/сделки, вызывается под замком
func (p *Paper) nextID() string {
	p.seq++
	return fmt.Sprintf("paper-%d", p.seq)
}
