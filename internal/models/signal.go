package models

import "time"

// SignalType - тип рыночного сигнала
type SignalType string

// Типы сигналов
const (
	SignalBuy               SignalType = "buy"
	SignalSell              SignalType = "sell"
	SignalBearishDivergence SignalType = "bearish_divergence" // цена выше, RSI ниже
	SignalBullishDivergence SignalType = "bullish_divergence" // цена ниже, RSI выше
	SignalNone              SignalType = ""                   // условия не выполнены
)

// Bearish возвращает true для сигналов, трактуемых как медвежьи
// (используется решающим механизмом авто-выхода на 1h)
func (s SignalType) Bearish() bool {
	return s == SignalSell || s == SignalBearishDivergence
}

// RSIState - классификация значения RSI
type RSIState string

// Состояния RSI
const (
	RSINeutral    RSIState = "neutral"
	RSIOverbought RSIState = "overbought" // RSI >= верхнего порога (70)
	RSIOversold   RSIState = "oversold"   // RSI <= нижнего порога (30)
)

// MarketSignal - результат классификации индикаторов одного таймфрейма.
//
// Производится заново на каждом цикле оценки и сразу потребляется
// решающим механизмом, в БД не сохраняется.
type MarketSignal struct {
	Timestamp    time.Time  `json:"timestamp"`
	Symbol       string     `json:"symbol"`
	Timeframe    Timeframe  `json:"timeframe"`
	SignalType   SignalType `json:"signal_type"`
	RSI          float64    `json:"rsi"`
	RSIState     RSIState   `json:"rsi_state"`
	ATR          float64    `json:"atr"`
	ClosingPrice float64    `json:"closing_price"`
	EMALongPrice float64    `json:"ema_long_price"`
}
