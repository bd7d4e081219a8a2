package guard

import (
	"testing"
	"time"

	"stopguard/internal/models"
)

// buildWindow собирает окно из закрытых свечей candles и формирующейся forming
func buildWindow(t *testing.T, cfg IndicatorConfig, closed []models.Candle, forming models.Candle) *CandleWindow {
	t.Helper()
	w := NewCandleWindow("BTCUSDT", models.Timeframe1h, cfg)
	forming.Forming = true
	if err := w.Refresh(append(closed, forming)); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return w
}

func candleAt(hour int, close float64) models.Candle {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return testCandle(base.Add(time.Duration(hour)*time.Hour), close, close+1, close-1, close)
}

// TestClassifier_NotReady проверяет пустой сигнал до прогрева окна
func TestClassifier_NotReady(t *testing.T) {
	cl := NewClassifier(ClassifierConfig{RSIOversold: 30, RSIOverbought: 70, DivergenceLookback: 1})
	w := NewCandleWindow("BTCUSDT", models.Timeframe1h, windowConfig())

	signal := cl.Classify(w, time.Now())
	if signal.SignalType != models.SignalNone {
		t.Errorf("signal on empty window = %s, want none", signal.SignalType)
	}
}

// TestClassifier_CrossBelowEMA проверяет сигнал продажи при пересечении
// длинной EMA сверху вниз
func TestClassifier_CrossBelowEMA(t *testing.T) {
	cfg := IndicatorConfig{RSIPeriod: 2, ATRPeriod: 2, EMAPeriod: 3}
	// Пороги RSI разведены, чтобы фильтр не мешал проверке пересечения
	cl := NewClassifier(ClassifierConfig{RSIOversold: 1, RSIOverbought: 99, DivergenceLookback: 1})

	closed := []models.Candle{
		candleAt(0, 100),
		candleAt(1, 100),
		candleAt(2, 100), // EMA warmup: 100
		candleAt(3, 102), // EMA: 101
		candleAt(4, 101.5), // EMA: 101.25, закрытие выше EMA
	}
	forming := candleAt(5, 100) // текущая цена ниже EMA

	w := buildWindow(t, cfg, closed, forming)
	signal := cl.Classify(w, time.Now())

	if signal.SignalType != models.SignalSell {
		t.Fatalf("signal = %s, want sell (cross below EMA)", signal.SignalType)
	}
	if !almostEqual(signal.EMALongPrice, 101.25) {
		t.Errorf("EMA = %v, want 101.25", signal.EMALongPrice)
	}
	if !almostEqual(signal.ClosingPrice, 100) {
		t.Errorf("closing price = %v, want forming close 100", signal.ClosingPrice)
	}
}

// TestClassifier_CrossAboveEMA проверяет сигнал покупки при пересечении снизу вверх
func TestClassifier_CrossAboveEMA(t *testing.T) {
	cfg := IndicatorConfig{RSIPeriod: 2, ATRPeriod: 2, EMAPeriod: 3}
	cl := NewClassifier(ClassifierConfig{RSIOversold: 1, RSIOverbought: 99, DivergenceLookback: 1})

	closed := []models.Candle{
		candleAt(0, 100),
		candleAt(1, 100),
		candleAt(2, 100),   // EMA warmup: 100
		candleAt(3, 98),    // EMA: 99
		candleAt(4, 98.5),  // EMA: 98.75, закрытие ниже EMA
	}
	forming := candleAt(5, 100) // текущая цена выше EMA

	w := buildWindow(t, cfg, closed, forming)
	signal := cl.Classify(w, time.Now())

	if signal.SignalType != models.SignalBuy {
		t.Fatalf("signal = %s, want buy (cross above EMA)", signal.SignalType)
	}
}

// TestClassifier_OversoldSuppressesSell проверяет RSI-фильтр пересечения
func TestClassifier_OversoldSuppressesSell(t *testing.T) {
	cfg := IndicatorConfig{RSIPeriod: 2, ATRPeriod: 2, EMAPeriod: 3}
	// Порог перепроданности задран: любой RSI считается oversold
	cl := NewClassifier(ClassifierConfig{RSIOversold: 100, RSIOverbought: 101, DivergenceLookback: 1})

	closed := []models.Candle{
		candleAt(0, 100),
		candleAt(1, 100),
		candleAt(2, 100),
		candleAt(3, 102),
		candleAt(4, 101.5),
	}
	forming := candleAt(5, 100)

	w := buildWindow(t, cfg, closed, forming)
	signal := cl.Classify(w, time.Now())

	if signal.SignalType != models.SignalNone {
		t.Errorf("signal = %s, want none (oversold suppresses sell)", signal.SignalType)
	}
	if signal.RSIState != models.RSIOversold {
		t.Errorf("rsi state = %s, want oversold", signal.RSIState)
	}
}

// TestClassifier_BearishDivergence проверяет медвежью дивергенцию:
// цена обновила максимум, RSI - нет
func TestClassifier_BearishDivergence(t *testing.T) {
	cfg := IndicatorConfig{RSIPeriod: 2, ATRPeriod: 2, EMAPeriod: 3}
	cl := NewClassifier(ClassifierConfig{RSIOversold: 1, RSIOverbought: 99, DivergenceLookback: 1})

	c3 := candleAt(3, 113)
	c3.High = 115
	c4 := candleAt(4, 112) // закрытие ниже: RSI падает
	c4.High = 120          // максимум выше

	closed := []models.Candle{
		candleAt(0, 100),
		candleAt(1, 105),
		candleAt(2, 95),
		c3,
		c4,
	}
	forming := candleAt(5, 111)

	w := buildWindow(t, cfg, closed, forming)
	signal := cl.Classify(w, time.Now())

	if signal.SignalType != models.SignalBearishDivergence {
		t.Fatalf("signal = %s, want bearish_divergence", signal.SignalType)
	}
	if !signal.SignalType.Bearish() {
		t.Error("bearish divergence must be treated as bearish")
	}
}

// TestClassifier_BullishDivergence проверяет бычью дивергенцию:
// цена обновила минимум, RSI - нет
func TestClassifier_BullishDivergence(t *testing.T) {
	cfg := IndicatorConfig{RSIPeriod: 2, ATRPeriod: 2, EMAPeriod: 3}
	cl := NewClassifier(ClassifierConfig{RSIOversold: 1, RSIOverbought: 99, DivergenceLookback: 1})

	c3 := candleAt(3, 90) // глубокое падение: RSI низкий
	c3.Low = 85
	c3.High = 92
	c4 := candleAt(4, 95) // отскок: RSI выше
	c4.Low = 80           // минимум ниже
	c4.High = 96

	closed := []models.Candle{
		candleAt(0, 100),
		candleAt(1, 105),
		candleAt(2, 95),
		c3,
		c4,
	}
	forming := candleAt(5, 96)

	w := buildWindow(t, cfg, closed, forming)
	signal := cl.Classify(w, time.Now())

	if signal.SignalType != models.SignalBullishDivergence {
		t.Fatalf("signal = %s, want bullish_divergence", signal.SignalType)
	}
}
