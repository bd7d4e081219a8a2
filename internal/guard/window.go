package guard

import (
	"errors"
	"fmt"

	"stopguard/internal/models"
)

// Ошибки окна свечей
var (
	ErrIncompleteCandle = errors.New("incomplete candle data")
	ErrWindowNotReady   = errors.New("candle window not ready")
)

// CandleWindow - окно последних свечей одного (symbol, timeframe).
//
// Слот 0 - формирующаяся свеча, слоты 1-4 - закрытые, от новых к старым.
// Окно владеет набором индикаторов и продвигает их ровно один раз на
// каждую закрывшуюся свечу: повторная подача той же свечи и свечи
// старше уже увиденных игнорируются.
type CandleWindow struct {
	symbol    string
	timeframe models.Timeframe

	// candles[0] - формирующаяся, далее закрытые, новые первыми
	candles []models.Candle

	ind *IndicatorSet
}

// NewCandleWindow создаёт пустое окно
func NewCandleWindow(symbol string, timeframe models.Timeframe, cfg IndicatorConfig) *CandleWindow {
	return &CandleWindow{
		symbol:    symbol,
		timeframe: timeframe,
		candles:   make([]models.Candle, 0, models.WindowSize),
		ind:       NewIndicatorSet(cfg),
	}
}

// Refresh принимает свежую выборку свечей с биржи (от старых к новым,
// последняя может быть формирующейся) и сдвигает окно.
//
// Валидация выполняется до применения: при любой некорректной свече
// весь цикл отбрасывается целиком, индикаторы не продвигаются.
func (w *CandleWindow) Refresh(candles []models.Candle) error {
	for i, c := range candles {
		if !c.Complete() {
			return fmt.Errorf("%w: %s %s candle %d",
				ErrIncompleteCandle, w.symbol, w.timeframe, i)
		}
		if c.Symbol != w.symbol || c.Timeframe != w.timeframe {
			return fmt.Errorf("%w: candle %s/%s does not belong to window %s/%s",
				ErrIncompleteCandle, c.Symbol, c.Timeframe, w.symbol, w.timeframe)
		}
	}

	for _, c := range candles {
		w.apply(c)
	}
	return nil
}

// apply вставляет одну свечу в окно
func (w *CandleWindow) apply(c models.Candle) {
	if len(w.candles) == 0 {
		w.candles = append(w.candles, c)
		return
	}

	head := w.candles[0]
	switch {
	case c.OpenTime.Equal(head.OpenTime):
		// Обновление текущей головы окна свежими данными
		w.candles[0] = c

	case c.OpenTime.After(head.OpenTime):
		// Пересечение границы свечи: голова закрывается и
		// продвигает индикаторы, новая свеча становится головой
		closed := w.candles[0]
		closed.Forming = false
		w.ind.Update(closed)
		w.candles[0] = closed

		w.candles = append([]models.Candle{c}, w.candles...)
		if len(w.candles) > models.WindowSize {
			w.candles = w.candles[:models.WindowSize]
		}

	default:
		// Свеча старше головы окна - уже учтена, игнорируем
	}
}

// At возвращает свечу по индексу слота (0 = формирующаяся)
func (w *CandleWindow) At(idx models.CandleIndex) (models.Candle, bool) {
	i := int(idx)
	if i < 0 || i >= len(w.candles) {
		return models.Candle{}, false
	}
	return w.candles[i], true
}

// Forming возвращает формирующуюся свечу
func (w *CandleWindow) Forming() (models.Candle, bool) {
	return w.At(models.CandleForming)
}

// LastClosed возвращает последнюю закрытую свечу
func (w *CandleWindow) LastClosed() (models.Candle, bool) {
	return w.At(models.CandleLastClosed)
}

// Ready возвращает true, когда окно заполнено и индикаторы прогреты
func (w *CandleWindow) Ready() bool {
	return len(w.candles) == models.WindowSize && w.ind.Ready()
}

// Indicators возвращает набор индикаторов окна
func (w *CandleWindow) Indicators() *IndicatorSet {
	return w.ind
}

// Symbol возвращает символ окна
func (w *CandleWindow) Symbol() string { return w.symbol }

// Timeframe возвращает таймфрейм окна
func (w *CandleWindow) Timeframe() models.Timeframe { return w.timeframe }
