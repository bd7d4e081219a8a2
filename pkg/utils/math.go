package utils

import (
	"math"
)

// math.go - математические утилиты для торговых расчётов
//
// Назначение:
// Вспомогательные математические функции для работы с объёмами и ценами.
// Все функции являются чистыми (pure functions) без побочных эффектов.
//
// Функции:
// - RoundToStep: округление вниз до шага биржи
// - RoundToStepUp: округление вверх до шага биржи
// - ChangePercent: относительное изменение цены в процентах
// - WeightedAverage: средневзвешенное значение
// - Clamp: ограничение значения диапазоном

// RoundToStep округляет значение ВНИЗ до ближайшего кратного step.
//
// Используется для округления объёма ордера до минимального шага биржи.
// Округление вниз гарантирует, что мы не превысим доступный остаток.
//
// Параметры:
//   - value: исходное значение (объём в монетах актива)
//   - step: минимальный шаг изменения объёма на бирже
//
// Возвращает:
//   - Округлённое значение, кратное step
//   - Если step <= 0, возвращает исходное значение
//
// Примеры:
//   - RoundToStep(0.123456, 0.001) = 0.123
//   - RoundToStep(1.999, 0.01) = 1.99
func RoundToStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	return math.Floor(value/step) * step
}

// RoundToStepUp округляет значение ВВЕРХ до ближайшего кратного step.
//
// Используется когда нужно гарантировать минимальный объём (minQty биржи).
func RoundToStepUp(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	return math.Ceil(value/step) * step
}

// ChangePercent возвращает относительное изменение от base к current
// в процентах.
//
// Параметры:
//   - base: опорная цена (обычно цена входа)
//   - current: текущая цена
//
// Возвращает:
//   - Изменение в процентах (положительное при росте)
//   - 0 если base <= 0
//
// Примеры:
//   - ChangePercent(100, 105) = 5.0
//   - ChangePercent(100, 95) = -5.0
func ChangePercent(base, current float64) float64 {
	if base <= 0 {
		return 0
	}
	return (current - base) / base * 100
}

// WeightedAverage вычисляет средневзвешенное значение.
//
// Формула:
//
//	avg = Σ(value_i × weight_i) / Σ(weight_i)
//
// Отрицательные веса пропускаются. Возвращает 0 при некорректных
// входных данных или нулевой сумме весов.
func WeightedAverage(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}

	var sumWeighted, sumWeights float64
	for i := range values {
		if weights[i] < 0 {
			continue
		}
		sumWeighted += values[i] * weights[i]
		sumWeights += weights[i]
	}

	if sumWeights == 0 {
		return 0
	}
	return sumWeighted / sumWeights
}

// Clamp ограничивает значение диапазоном [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
