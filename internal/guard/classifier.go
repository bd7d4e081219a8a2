package guard

import (
	"time"

	"stopguard/internal/models"
)

// ClassifierConfig - настройки классификатора сигналов
type ClassifierConfig struct {
	RSIOversold        float64
	RSIOverbought      float64
	DivergenceLookback int // глубина сравнения для дивергенции, в закрытых свечах
}

// Classifier переводит состояние окна свечей в рыночный сигнал.
//
// Приоритет: дивергенция сильнее пересечения EMA. Если окно или
// индикаторы не прогреты, возвращается пустой сигнал.
type Classifier struct {
	cfg ClassifierConfig
}

// NewClassifier создаёт классификатор
func NewClassifier(cfg ClassifierConfig) *Classifier {
	if cfg.DivergenceLookback <= 0 {
		cfg.DivergenceLookback = 1
	}
	return &Classifier{cfg: cfg}
}

// Classify вычисляет сигнал по текущему состоянию окна
func (cl *Classifier) Classify(w *CandleWindow, now time.Time) models.MarketSignal {
	signal := models.MarketSignal{
		Symbol:     w.Symbol(),
		Timeframe:  w.Timeframe(),
		SignalType: models.SignalNone,
		Timestamp:  now,
	}

	if !w.Ready() {
		return signal
	}

	ind := w.Indicators()
	forming, _ := w.Forming()
	lastClosed, _ := w.LastClosed()

	rsi := ind.RSI()
	ema := ind.EMALong()

	signal.RSI = rsi
	signal.RSIState = ClassifyRSI(rsi, cl.cfg.RSIOversold, cl.cfg.RSIOverbought)
	signal.ATR = ind.ATR()
	signal.EMALongPrice = ema
	signal.ClosingPrice = forming.Close

	// Дивергенция имеет приоритет над пересечением EMA
	if div := cl.divergence(w, ind); div != models.SignalNone {
		signal.SignalType = div
		return signal
	}

	// Пересечение длинной EMA: сравниваем последнее закрытие с текущей ценой
	crossedBelow := lastClosed.Close >= ema && forming.Close < ema
	crossedAbove := lastClosed.Close <= ema && forming.Close > ema

	switch {
	case crossedBelow && signal.RSIState != models.RSIOversold:
		signal.SignalType = models.SignalSell
	case crossedAbove && signal.RSIState != models.RSIOverbought:
		signal.SignalType = models.SignalBuy
	}

	return signal
}

// divergence ищет расхождение цены и RSI между последней закрытой
// свечой и свечой на lookback закрытий раньше.
//
// Медвежья: цена обновила максимум, RSI - нет.
// Бычья: цена обновила минимум, RSI - нет.
func (cl *Classifier) divergence(w *CandleWindow, ind *IndicatorSet) models.SignalType {
	recent, ok := w.LastClosed()
	if !ok {
		return models.SignalNone
	}
	prior, ok := w.At(models.CandleIndex(1 + cl.cfg.DivergenceLookback))
	if !ok {
		return models.SignalNone
	}

	recentRSI, ok := ind.RSIAt(0)
	if !ok {
		return models.SignalNone
	}
	priorRSI, ok := ind.RSIAt(cl.cfg.DivergenceLookback)
	if !ok {
		return models.SignalNone
	}

	if recent.High > prior.High && recentRSI < priorRSI {
		return models.SignalBearishDivergence
	}
	if recent.Low < prior.Low && recentRSI > priorRSI {
		return models.SignalBullishDivergence
	}
	return models.SignalNone
}
