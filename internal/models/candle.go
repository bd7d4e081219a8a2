package models

import "time"

// Timeframe определяет период свечи, по которому считаются индикаторы
type Timeframe string

// Поддерживаемые таймфреймы
const (
	Timeframe1h Timeframe = "1h" // быстрый таймфрейм (сигналы выхода)
	Timeframe4h Timeframe = "4h" // медленный таймфрейм (ATR для take-profit)
)

// Duration возвращает длительность периода свечи
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case Timeframe1h:
		return time.Hour
	case Timeframe4h:
		return 4 * time.Hour
	default:
		return 0
	}
}

// Valid проверяет, что таймфрейм известен системе
func (tf Timeframe) Valid() bool {
	switch tf {
	case Timeframe1h, Timeframe4h:
		return true
	default:
		return false
	}
}

// Timeframes возвращает все таймфреймы, отслеживаемые ядром
func Timeframes() []Timeframe {
	return []Timeframe{Timeframe4h, Timeframe1h}
}

// CandleIndex - относительный индекс свечи в окне (0 = формирующаяся)
type CandleIndex int

// Индексы свечей в окне из пяти слотов
const (
	CandleForming    CandleIndex = 0 // текущая незакрытая свеча
	CandleLastClosed CandleIndex = 1 // последняя закрытая
	CandleClosed2    CandleIndex = 2
	CandleClosed3    CandleIndex = 3
	CandleClosed4    CandleIndex = 4
)

// WindowSize - фиксированная ёмкость окна свечей
const WindowSize = 5

// Candle представляет OHLCV свечу
//
// Закрытая свеча иммутабельна. Формирующаяся (Forming=true) обновляется
// до пересечения границы периода, после чего закрывается и сдвигает окно.
type Candle struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	OpenTime  time.Time `json:"open_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Forming   bool      `json:"forming"` // true пока период не истёк
}

// Complete проверяет, что у свечи заполнены все обязательные поля.
// Неполные рыночные данные не допускаются к обновлению индикаторов.
func (c *Candle) Complete() bool {
	if c.OpenTime.IsZero() {
		return false
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return false
	}
	return c.High >= c.Low
}
