package guard

import "stopguard/internal/models"

// AverageBuyPrice вычисляет среднюю цену входа позиции по истории сделок.
//
// Модель - средневзвешенная стоимость: покупки увеличивают позицию и её
// стоимость (количество берётся за вычетом комиссии), продажи уменьшают
// позицию и стоимость пропорционально текущей средней цене. Сделки
// подаются в хронологическом порядке (старые первыми).
//
// Возвращает 0 при пустой или полностью закрытой позиции.
func AverageBuyPrice(trades []models.Trade) float64 {
	var amount, cost float64

	for _, t := range trades {
		switch t.Side {
		case models.SideBuy:
			qty := t.AmountAfterFee()
			if qty <= 0 {
				continue
			}
			cost += t.Price * t.Amount
			amount += qty

		case models.SideSell:
			if amount <= 0 {
				continue
			}
			qty := t.Amount
			if qty > amount {
				qty = amount
			}
			avg := cost / amount
			cost -= avg * qty
			amount -= qty
		}
	}

	if amount <= 0 {
		return 0
	}
	return cost / amount
}
