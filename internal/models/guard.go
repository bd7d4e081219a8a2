package models

import "time"

// GuardMetrics - защитные метрики позиции на момент одного цикла оценки.
//
// Инвариант: SafeguardStopPrice монотонно не убывает на протяжении жизни
// одного LimitSellOrder (трейлинг-стоп подтягивается вверх и никогда не
// ослабляется). При смене или исчезновении ордера метрики сбрасываются.
type GuardMetrics struct {
	LimitSellOrder       *LimitSellOrder `json:"limit_sell_order"`
	StopLossPercentValue float64         `json:"stop_loss_percent_value"`
	AvgBuyPrice          float64         `json:"avg_buy_price"`
	SafeguardStopPrice   float64         `json:"safeguard_stop_price"`
}

// AutoExitReason - вердикт решающего механизма авто-выхода.
//
// Иммутабельное значение, производится целиком один раз за цикл.
type AutoExitReason struct {
	SafeguardStopPriceReached      bool `json:"safeguard_stop_price_reached"`
	AutoExitSell1h                 bool `json:"auto_exit_sell_1h"`
	ATRTakeProfitLimitPriceReached bool `json:"atr_take_profit_limit_price_reached"`
}

// IsExit возвращает true, если сработало хотя бы одно условие выхода
func (r AutoExitReason) IsExit() bool {
	return r.SafeguardStopPriceReached || r.AutoExitSell1h || r.ATRTakeProfitLimitPriceReached
}

// Состояния координатора исполнения (state machine per symbol)
const (
	GuardStateIdle          = "IDLE"           // нет охраняемого ордера
	GuardStateGuarding      = "GUARDING"       // ордер под охраной, мониторинг активен
	GuardStateExitPending   = "EXIT_PENDING"   // выход запущен: cancel + immediate sell
	GuardStateExitConfirmed = "EXIT_CONFIRMED" // биржа подтвердила исполнение продажи
)

// SymbolGuardStatus - снимок состояния охраны символа для API/бота
type SymbolGuardStatus struct {
	Symbol         string          `json:"symbol"`
	State          string          `json:"state"`
	Enabled        bool            `json:"enabled"`
	Metrics        *GuardMetrics   `json:"metrics,omitempty"`
	LastExitReason *AutoExitReason `json:"last_exit_reason,omitempty"`
	LastEvaluated  time.Time       `json:"last_evaluated"`
}
