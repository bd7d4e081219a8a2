package guard

import (
	"sync"

	"stopguard/internal/models"
)

// DecisionConfig - настройки решающего механизма авто-выхода
type DecisionConfig struct {
	// Множитель ATR(4h) для take-profit уровня относительно средней цены входа
	TakeProfitATRMultiplier float64
}

// DecisionEngine вычисляет вердикт авто-выхода и гарантирует, что по
// одному ордеру выход инициируется не более одного раза.
type DecisionEngine struct {
	cfg DecisionConfig

	mu sync.Mutex
	// Последний ордер, по которому выход уже был инициирован, per symbol
	actioned map[string]string
}

// NewDecisionEngine создаёт решающий механизм
func NewDecisionEngine(cfg DecisionConfig) *DecisionEngine {
	return &DecisionEngine{
		cfg:      cfg,
		actioned: make(map[string]string),
	}
}

// Evaluate вычисляет вердикт выхода за один цикл оценки.
//
// Три условия независимы и объединяются через OR:
//   - цена коснулась или пробила трейлинг-стоп;
//   - медвежий сигнал на 1h;
//   - цена достигла take-profit уровня avgBuy + k*ATR(4h).
//
// Функция чистая: состояние идемпотентности здесь не трогается.
func (d *DecisionEngine) Evaluate(metrics models.GuardMetrics, signal1h models.MarketSignal, atr4h, currentPrice float64) models.AutoExitReason {
	var reason models.AutoExitReason

	if metrics.LimitSellOrder == nil || currentPrice <= 0 {
		return reason
	}

	if metrics.SafeguardStopPrice > 0 && currentPrice <= metrics.SafeguardStopPrice {
		reason.SafeguardStopPriceReached = true
	}

	if signal1h.SignalType.Bearish() {
		reason.AutoExitSell1h = true
	}

	if metrics.AvgBuyPrice > 0 && atr4h > 0 {
		takeProfit := metrics.AvgBuyPrice + d.cfg.TakeProfitATRMultiplier*atr4h
		if currentPrice >= takeProfit {
			reason.ATRTakeProfitLimitPriceReached = true
		}
	}

	return reason
}

// ShouldAction атомарно проверяет и взводит маркер идемпотентности.
//
// Возвращает true ровно один раз на (symbol, orderID) при положительном
// вердикте: повторные циклы с тем же ордером ничего не инициируют,
// новый ордер снимает маркер.
func (d *DecisionEngine) ShouldAction(symbol, orderID string, reason models.AutoExitReason) bool {
	if !reason.IsExit() || orderID == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.actioned[symbol] == orderID {
		return false
	}
	d.actioned[symbol] = orderID
	return true
}

// ClearAction снимает маркер идемпотентности символа (ордер исчез,
// выход не состоялся и охрана продолжается)
func (d *DecisionEngine) ClearAction(symbol string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.actioned, symbol)
}
