package guard

import (
	"math"

	"stopguard/internal/models"
)

// ============================================================
// Потоковые индикаторы
// ============================================================
//
// Окно свечей фиксировано пятью слотами, но RSI/ATR/EMA требуют более
// длинной памяти. Поэтому индикаторы ведутся как бегущие аккумуляторы,
// продвигающиеся на один шаг при закрытии свечи, и не пересчитываются
// из окна.

// WilderRSI - потоковый RSI со сглаживанием Уайлдера
type WilderRSI struct {
	period    int
	avgGain   float64
	avgLoss   float64
	prevClose float64
	hasPrev   bool
	count     int
}

// NewWilderRSI создаёт RSI с указанным периодом
func NewWilderRSI(period int) *WilderRSI {
	return &WilderRSI{period: period}
}

// Update продвигает RSI на одну закрытую свечу
func (r *WilderRSI) Update(close float64) {
	if !r.hasPrev {
		r.prevClose = close
		r.hasPrev = true
		return
	}

	delta := close - r.prevClose
	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	if r.count < r.period {
		// Warmup: простое среднее первых period приращений
		r.avgGain += gain
		r.avgLoss += loss
		r.count++
		if r.count == r.period {
			r.avgGain /= float64(r.period)
			r.avgLoss /= float64(r.period)
		}
	} else {
		// Сглаживание Уайлдера
		r.avgGain = (r.avgGain*float64(r.period-1) + gain) / float64(r.period)
		r.avgLoss = (r.avgLoss*float64(r.period-1) + loss) / float64(r.period)
	}

	r.prevClose = close
}

// Ready возвращает true после окончания warmup
func (r *WilderRSI) Ready() bool {
	return r.count >= r.period
}

// Value возвращает текущее значение RSI (0-100)
func (r *WilderRSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

// Reset сбрасывает аккумулятор
func (r *WilderRSI) Reset() {
	r.avgGain = 0
	r.avgLoss = 0
	r.prevClose = 0
	r.hasPrev = false
	r.count = 0
}

// WilderATR - потоковый Average True Range со сглаживанием Уайлдера
type WilderATR struct {
	period    int
	atr       float64
	warmupSum float64
	prevClose float64
	hasPrev   bool
	count     int
}

// NewWilderATR создаёт ATR с указанным периодом
func NewWilderATR(period int) *WilderATR {
	return &WilderATR{period: period}
}

// Update продвигает ATR на одну закрытую свечу
func (a *WilderATR) Update(c models.Candle) {
	if !a.hasPrev {
		a.prevClose = c.Close
		a.hasPrev = true
		return
	}

	tr := trueRange(c.High, c.Low, a.prevClose)

	if a.count < a.period {
		a.warmupSum += tr
		a.count++
		if a.count == a.period {
			a.atr = a.warmupSum / float64(a.period)
		}
	} else {
		a.atr = (a.atr*float64(a.period-1) + tr) / float64(a.period)
	}

	a.prevClose = c.Close
}

// Ready возвращает true после окончания warmup
func (a *WilderATR) Ready() bool {
	return a.count >= a.period
}

// Value возвращает текущее значение ATR в единицах цены
func (a *WilderATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.atr
}

// Reset сбрасывает аккумулятор
func (a *WilderATR) Reset() {
	a.atr = 0
	a.warmupSum = 0
	a.prevClose = 0
	a.hasPrev = false
	a.count = 0
}

// trueRange вычисляет истинный диапазон свечи относительно предыдущего закрытия
func trueRange(high, low, prevClose float64) float64 {
	highLow := high - low
	highClose := math.Abs(high - prevClose)
	lowClose := math.Abs(low - prevClose)
	return math.Max(highLow, math.Max(highClose, lowClose))
}

// EMA - потоковая экспоненциальная скользящая средняя.
// Используется как "длинный" трендовый фильтр.
type EMA struct {
	period     int
	multiplier float64
	ema        float64
	warmupSum  float64
	count      int
}

// NewEMA создаёт EMA с указанным периодом
func NewEMA(period int) *EMA {
	return &EMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

// Update продвигает EMA на одну закрытую свечу
func (e *EMA) Update(close float64) {
	if e.count < e.period {
		// Warmup: инициализация через SMA
		e.warmupSum += close
		e.count++
		if e.count == e.period {
			e.ema = e.warmupSum / float64(e.period)
		}
		return
	}
	e.ema = (close-e.ema)*e.multiplier + e.ema
}

// Ready возвращает true после окончания warmup
func (e *EMA) Ready() bool {
	return e.count >= e.period
}

// Value возвращает текущее значение EMA
func (e *EMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}

// Reset сбрасывает аккумулятор
func (e *EMA) Reset() {
	e.ema = 0
	e.warmupSum = 0
	e.count = 0
}

// IndicatorConfig - периоды индикаторов (настраиваются, не захардкожены)
type IndicatorConfig struct {
	RSIPeriod int
	ATRPeriod int
	EMAPeriod int
}

// IndicatorSet объединяет аккумуляторы одного (symbol, timeframe).
//
// Дополнительно хранит историю значений RSI, выровненную по закрытым
// свечам, для детекции дивергенций.
type IndicatorSet struct {
	rsi *WilderRSI
	atr *WilderATR
	ema *EMA

	// Значения RSI последних закрытых свечей (новые в конце),
	// глубина равна ёмкости окна
	rsiHistory []float64
}

// NewIndicatorSet создаёт набор индикаторов
func NewIndicatorSet(cfg IndicatorConfig) *IndicatorSet {
	return &IndicatorSet{
		rsi: NewWilderRSI(cfg.RSIPeriod),
		atr: NewWilderATR(cfg.ATRPeriod),
		ema: NewEMA(cfg.EMAPeriod),
	}
}

// Update продвигает все аккумуляторы на одну закрытую свечу
func (s *IndicatorSet) Update(c models.Candle) {
	s.rsi.Update(c.Close)
	s.atr.Update(c)
	s.ema.Update(c.Close)

	if s.rsi.Ready() {
		s.rsiHistory = append(s.rsiHistory, s.rsi.Value())
		if len(s.rsiHistory) > models.WindowSize {
			s.rsiHistory = s.rsiHistory[1:]
		}
	}
}

// Ready возвращает true, когда все индикаторы прошли warmup
func (s *IndicatorSet) Ready() bool {
	return s.rsi.Ready() && s.atr.Ready() && s.ema.Ready()
}

// RSI возвращает текущее значение RSI
func (s *IndicatorSet) RSI() float64 { return s.rsi.Value() }

// ATR возвращает текущее значение ATR
func (s *IndicatorSet) ATR() float64 { return s.atr.Value() }

// EMALong возвращает текущее значение длинной EMA
func (s *IndicatorSet) EMALong() float64 { return s.ema.Value() }

// RSIAt возвращает RSI закрытой свечи со смещением stepsBack назад
// (0 = последняя закрытая). Второй результат false, если истории не хватает.
func (s *IndicatorSet) RSIAt(stepsBack int) (float64, bool) {
	idx := len(s.rsiHistory) - 1 - stepsBack
	if idx < 0 {
		return 0, false
	}
	return s.rsiHistory[idx], true
}

// ClassifyRSI переводит значение RSI в состояние.
// Пороги настраиваемые: стандартно oversold=30, overbought=70.
func ClassifyRSI(value, oversold, overbought float64) models.RSIState {
	switch {
	case value <= oversold:
		return models.RSIOversold
	case value >= overbought:
		return models.RSIOverbought
	default:
		return models.RSINeutral
	}
}
