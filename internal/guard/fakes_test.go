package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stopguard/internal/exchange"
	"stopguard/internal/models"
)

// fakeExchange - управляемая реализация биржи для тестов координатора
// и планировщика
type fakeExchange struct {
	mu sync.Mutex

	open   []*models.LimitSellOrder
	orders map[string]*models.LimitSellOrder

	candles  map[models.Timeframe][]models.Candle
	trades   []models.Trade
	ticker   exchange.Ticker
	balances []models.TradingWalletBalance

	cancelErr      error
	cancelCalls    int
	sellErr        error
	sellFailsLeft  int
	sells          []float64
	nextMarketID   int
	getOrderErr    error
	openOrdersErr  error
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{orders: make(map[string]*models.LimitSellOrder)}
}

func (f *fakeExchange) addOpenOrder(o *models.LimitSellOrder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = append(f.open, o)
	f.orders[o.ID] = o
}

func (f *fakeExchange) removeOpen(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.open {
		if o.ID == orderID {
			f.open = append(f.open[:i], f.open[i+1:]...)
			return
		}
	}
}

func (f *fakeExchange) setStatus(orderID, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderID]; ok {
		o.Status = status
	}
}

func (f *fakeExchange) sellCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sells)
}

func (f *fakeExchange) Connect(apiKey, secret string) error { return nil }
func (f *fakeExchange) GetName() string                     { return "fake" }
func (f *fakeExchange) Close() error                        { return nil }

func (f *fakeExchange) GetCandles(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.candles[tf], nil
}

func (f *fakeExchange) GetTicker(ctx context.Context, symbol string) (*exchange.Ticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.ticker
	return &t, nil
}

func (f *fakeExchange) GetTradeHistory(ctx context.Context, symbol string) ([]models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trades, nil
}

func (f *fakeExchange) GetWalletBalances(ctx context.Context) ([]models.TradingWalletBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances, nil
}

func (f *fakeExchange) GetOpenOrders(ctx context.Context, symbol string) ([]*models.LimitSellOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openOrdersErr != nil {
		return nil, f.openOrdersErr
	}
	out := make([]*models.LimitSellOrder, len(f.open))
	copy(out, f.open)
	return out, nil
}

func (f *fakeExchange) GetOrder(ctx context.Context, orderID string) (*models.LimitSellOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getOrderErr != nil {
		return nil, f.getOrderErr
	}
	o, ok := f.orders[orderID]
	if !ok {
		return nil, exchange.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeExchange) PlaceLimitSellOrder(ctx context.Context, symbol string, amount, price float64) (*models.LimitSellOrder, error) {
	return nil, fmt.Errorf("not used in tests")
}

func (f *fakeExchange) PlaceMarketSellOrder(ctx context.Context, symbol string, amount float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sellFailsLeft > 0 {
		f.sellFailsLeft--
		return "", f.sellErr
	}
	f.nextMarketID++
	id := fmt.Sprintf("mkt-%d", f.nextMarketID)
	f.orders[id] = &models.LimitSellOrder{
		ID:     id,
		Symbol: symbol,
		Amount: amount,
		Status: models.OrderStatusFilled,
	}
	f.sells = append(f.sells, amount)
	return id, nil
}

func (f *fakeExchange) CancelOrder(ctx context.Context, orderID string) error {
	f.mu.Lock()
	if f.cancelErr != nil {
		f.cancelCalls++
		f.mu.Unlock()
		return f.cancelErr
	}
	f.cancelCalls++
	o, ok := f.orders[orderID]
	f.mu.Unlock()
	if !ok {
		return exchange.ErrOrderNotFound
	}
	if models.OrderTerminal(o.Status) {
		return &exchange.ExchangeError{Exchange: "fake", Code: exchange.ErrCodeInvalidSymbol, Message: "order is final"}
	}
	f.setStatus(orderID, models.OrderStatusCancelled)
	f.removeOpen(orderID)
	return nil
}

var _ exchange.Exchange = (*fakeExchange)(nil)

// fakeFlags - флаги в памяти
type fakeFlags struct {
	mu sync.Mutex
	m  map[string]bool
}

func (f *fakeFlags) IsEnabled(ctx context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m[name], nil
}

func (f *fakeFlags) set(name string, v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[name] = v
}

func allFlagsOn(symbol string) *fakeFlags {
	return &fakeFlags{m: map[string]bool{
		models.FlagAutoExitEnabled:        true,
		models.SymbolAutoExitFlag(symbol): true,
	}}
}

// fakeStopLoss - фиксированный процент стоп-лосса
type fakeStopLoss struct{ pct float64 }

func (f fakeStopLoss) PercentFor(ctx context.Context, symbol string) (float64, error) {
	return f.pct, nil
}

// fakeSymbols - фиксированный список символов
type fakeSymbols struct{ list []string }

func (f fakeSymbols) TrackedSymbols(ctx context.Context) ([]string, error) {
	return f.list, nil
}

// notifyCollector собирает уведомления потокобезопасно
type notifyCollector struct {
	mu    sync.Mutex
	items []*models.Notification
}

func (n *notifyCollector) fn(notification *models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, notification)
}

func (n *notifyCollector) byType(typ string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, item := range n.items {
		if item.Type == typ {
			count++
		}
	}
	return count
}

// flatCandles генерирует валидную серию свечей вокруг цены price
func flatCandles(symbol string, tf models.Timeframe, price float64, n int) []models.Candle {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		c := models.Candle{
			Symbol:    symbol,
			Timeframe: tf,
			OpenTime:  base.Add(time.Duration(i) * tf.Duration()),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    1,
		}
		if i == n-1 {
			c.Forming = true
		}
		out = append(out, c)
	}
	return out
}
