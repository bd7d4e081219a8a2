package guard

import "math"

// Safeguard - трейлинг-стоп одного охраняемого ордера.
//
// Стоп-цена привязана к ID лимитного ордера на продажу и монотонно не
// убывает, пока ордер не сменился: опорная цена - максимум из средней
// цены покупки и наивысшей цены, наблюдавшейся с момента появления
// ордера; кандидат - опорная цена минус процент стоп-лосса; итог -
// максимум кандидата и ранее зафиксированного стопа.
type Safeguard struct {
	orderID   string
	highest   float64
	stopPrice float64
	armed     bool
}

// Update пересчитывает стоп-цену для ордера orderID.
//
// При смене orderID состояние сбрасывается и трейлинг начинается заново.
// Возвращает актуальную стоп-цену.
func (s *Safeguard) Update(orderID string, avgBuyPrice, currentPrice, stopLossPercent float64) float64 {
	if orderID != s.orderID {
		s.Reset()
		s.orderID = orderID
	}

	if currentPrice > s.highest {
		s.highest = currentPrice
	}

	reference := math.Max(avgBuyPrice, s.highest)
	candidate := reference * (1 - stopLossPercent/100)

	if !s.armed || candidate > s.stopPrice {
		s.stopPrice = candidate
		s.armed = true
	}
	return s.stopPrice
}

// StopPrice возвращает текущую стоп-цену; второй результат false,
// если трейлинг ещё не инициализирован
func (s *Safeguard) StopPrice() (float64, bool) {
	return s.stopPrice, s.armed
}

// OrderID возвращает ID ордера, к которому привязан трейлинг
func (s *Safeguard) OrderID() string {
	return s.orderID
}

// Reset сбрасывает состояние трейлинга (ордер исчез или сменился)
func (s *Safeguard) Reset() {
	s.orderID = ""
	s.highest = 0
	s.stopPrice = 0
	s.armed = false
}
