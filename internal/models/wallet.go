package models

// EffectiveBalanceThreshold - порог пыли: балансы меньше 0.01 единицы
// актива не считаются торгуемой позицией
const EffectiveBalanceThreshold = 0.01

// TradingWalletBalance представляет баланс актива на торговом кошельке
type TradingWalletBalance struct {
	Currency       string  `json:"currency"`
	Balance        float64 `json:"balance"`         // свободный остаток
	BlockedBalance float64 `json:"blocked_balance"` // зарезервировано отложенными ордерами
}

// TotalBalance возвращает полный баланс (свободный + заблокированный)
func (b TradingWalletBalance) TotalBalance() float64 {
	return b.Balance + b.BlockedBalance
}

// IsEffective возвращает true, если баланс выше порога пыли
// хотя бы в одной из частей
func (b TradingWalletBalance) IsEffective() bool {
	return b.Balance > EffectiveBalanceThreshold || b.BlockedBalance > EffectiveBalanceThreshold
}

// Trade представляет исполненную сделку из истории аккаунта
type Trade struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"` // buy, sell
	OrderID   *string `json:"order_id,omitempty"`
	Price     float64 `json:"price"`
	Amount    float64 `json:"amount"`
	FeeAmount float64 `json:"fee_amount"`
}

// AmountAfterFee возвращает количество актива за вычетом комиссии
func (t Trade) AmountAfterFee() float64 {
	return t.Amount - t.FeeAmount
}
