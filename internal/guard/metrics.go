package guard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики охранного ядра
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для уведомлений о проблемах

// ============ Метрики цикла оценки ============

// EvaluationsTotal - количество циклов оценки по символам и исходам
var EvaluationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stopguard",
		Subsystem: "guard",
		Name:      "evaluations_total",
		Help:      "Total number of symbol guard evaluations",
	},
	[]string{"symbol", "result"}, // result: ok, skipped_busy, skipped_disabled, error
)

// EvaluationDuration - длительность одного цикла оценки символа
var EvaluationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "stopguard",
		Subsystem: "guard",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of a single symbol evaluation",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	},
	[]string{"symbol"},
)

// ============ Метрики авто-выхода ============

// ExitsTriggered - инициированные авто-выходы по причинам
var ExitsTriggered = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stopguard",
		Subsystem: "guard",
		Name:      "exits_triggered_total",
		Help:      "Number of auto-exit triggers by reason",
	},
	[]string{"symbol", "reason"}, // reason: safeguard_stop, sell_1h, atr_take_profit, manual
)

// ExitsConfirmed - подтверждённые биржей выходы
var ExitsConfirmed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stopguard",
		Subsystem: "guard",
		Name:      "exits_confirmed_total",
		Help:      "Number of exits confirmed by the exchange",
	},
	[]string{"symbol"},
)

// ExitFailures - неудачные попытки выхода
var ExitFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stopguard",
		Subsystem: "guard",
		Name:      "exit_failures_total",
		Help:      "Number of failed exit attempts",
	},
	[]string{"symbol", "stage"}, // stage: cancel, sell, confirm
)

// ============ Метрики состояния ============

// SafeguardStopPrice - текущая трейлинг-стоп цена по символам
var SafeguardStopPrice = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "stopguard",
		Subsystem: "guard",
		Name:      "safeguard_stop_price",
		Help:      "Current trailing safeguard stop price per symbol",
	},
	[]string{"symbol"},
)

// ActiveGuards - количество символов в каждом состоянии охраны
var ActiveGuards = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "stopguard",
		Subsystem: "guard",
		Name:      "active_guards",
		Help:      "Number of symbol guards by state",
	},
	[]string{"state"}, // idle, guarding, exit_pending, exit_confirmed
)

// ============ Метрики биржи ============

// ExchangeRequestErrors - ошибки запросов к бирже
var ExchangeRequestErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stopguard",
		Subsystem: "exchange",
		Name:      "request_errors_total",
		Help:      "Exchange request errors by code",
	},
	[]string{"exchange", "code"},
)

// ExchangeRequestDuration - длительность запросов к бирже
var ExchangeRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "stopguard",
		Subsystem: "exchange",
		Name:      "request_duration_seconds",
		Help:      "Exchange request duration",
		Buckets:   []float64{0.05, 0.1, 0.2, 0.3, 0.5, 1, 2, 5},
	},
	[]string{"exchange", "endpoint"},
)

// ============ Вспомогательные функции ============

// RecordEvaluation записывает исход цикла оценки символа
func RecordEvaluation(symbol, result string, durationSeconds float64) {
	EvaluationsTotal.WithLabelValues(symbol, result).Inc()
	if result == "ok" {
		EvaluationDuration.WithLabelValues(symbol).Observe(durationSeconds)
	}
}

// RecordExitTrigger записывает причины инициированного выхода
func RecordExitTrigger(symbol string, reason string) {
	ExitsTriggered.WithLabelValues(symbol, reason).Inc()
}

// RecordExitConfirmed записывает подтверждённый выход
func RecordExitConfirmed(symbol string) {
	ExitsConfirmed.WithLabelValues(symbol).Inc()
}

// RecordExitFailure записывает неудачную стадию выхода
func RecordExitFailure(symbol, stage string) {
	ExitFailures.WithLabelValues(symbol, stage).Inc()
}

// UpdateSafeguardStop обновляет gauge трейлинг-стопа символа
func UpdateSafeguardStop(symbol string, price float64) {
	SafeguardStopPrice.WithLabelValues(symbol).Set(price)
}

// ClearSafeguardStop убирает gauge символа (охрана снята)
func ClearSafeguardStop(symbol string) {
	SafeguardStopPrice.DeleteLabelValues(symbol)
}

// RecordExchangeError записывает ошибку запроса к бирже
func RecordExchangeError(exchange, code string) {
	ExchangeRequestErrors.WithLabelValues(exchange, code).Inc()
}
