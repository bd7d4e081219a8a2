package models

import (
	"errors"
	"fmt"
	"time"
)

// Статусы ордера (источник истины - биржа, локально только зеркалируются)
const (
	OrderStatusOpen               = "open"
	OrderStatusFilled             = "filled"
	OrderStatusPartiallyFilled    = "partially_filled"
	OrderStatusCancelled          = "cancelled"
	OrderStatusPartiallyCancelled = "partially_cancelled"
	OrderStatusInactive           = "inactive"
)

// Стороны ордера
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Типы ордера
const (
	OrderTypeLimit  = "limit"
	OrderTypeMarket = "market"
)

// OrderTerminal возвращает true для статусов, из которых ордер уже не исполнится
func OrderTerminal(status string) bool {
	switch status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusInactive:
		return true
	default:
		return false
	}
}

// LimitSellOrder - отслеживаемый отложенный ордер на продажу.
//
// Смена ID означает смену охраняемого ордера: трейлинг-стоп и маркер
// идемпотентности выхода при этом сбрасываются.
type LimitSellOrder struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Amount    float64   `json:"amount"`
	FilledAmt float64   `json:"filled_amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrInvalidSellPercent возвращается при percent_to_sell вне [0, 100]
var ErrInvalidSellPercent = errors.New("percent_to_sell must be within [0, 100]")

// ImmediateSellOrderItem - действие немедленной продажи позиции.
//
// Описывает действие, а не состояние: создаётся координатором в момент
// срабатывания выхода и сразу отправляется на биржу.
type ImmediateSellOrderItem struct {
	SellOrderID   string  `json:"sell_order_id"`
	PercentToSell float64 `json:"percent_to_sell"`
}

// NewImmediateSellOrderItem валидирует и создаёт ImmediateSellOrderItem.
// Значения вне [0, 100] - жёсткая ошибка конструирования, без молчаливого clamp.
func NewImmediateSellOrderItem(sellOrderID string, percentToSell float64) (ImmediateSellOrderItem, error) {
	if percentToSell < 0 || percentToSell > 100 {
		return ImmediateSellOrderItem{}, fmt.Errorf("%w: got %v", ErrInvalidSellPercent, percentToSell)
	}
	return ImmediateSellOrderItem{
		SellOrderID:   sellOrderID,
		PercentToSell: percentToSell,
	}, nil
}
