package guard

import (
	"fmt"
	"sync"
	"time"

	"stopguard/internal/models"
)

// ErrInvalidTransition возвращается при недопустимом переходе состояния
var ErrInvalidTransition = fmt.Errorf("invalid guard state transition")

// PendingSell - маркер незавершённого выхода: охраняемый лимитный ордер
// уже снят, но рыночная продажа остатка ещё не подтверждена биржей.
// Пока маркер установлен, охрана не сбрасывается в IDLE - следующий цикл
// дожимает продажу.
type PendingSell struct {
	CancelledOrderID string
	Amount           float64
	MarketOrderID    string // id размещённой рыночной заявки, если была
	Reason           models.AutoExitReason
}

// SymbolGuard - рантайм-состояние охраны одного символа.
//
// Мьютекс одновременно служит замком занятости: планировщик берёт его
// через TryLock и пропускает цикл, если предыдущая оценка символа ещё
// идёт. Все мутации полей выполняются под мьютексом.
type SymbolGuard struct {
	mu sync.Mutex

	symbol string
	state  string

	order       *models.LimitSellOrder
	safeguard   Safeguard
	metrics     models.GuardMetrics
	pendingSell *PendingSell
	lastReason  *models.AutoExitReason
	lastEval    time.Time
}

// NewSymbolGuard создаёт охрану символа в состоянии IDLE
func NewSymbolGuard(symbol string) *SymbolGuard {
	ActiveGuards.WithLabelValues(models.GuardStateIdle).Inc()
	return &SymbolGuard{
		symbol: symbol,
		state:  models.GuardStateIdle,
	}
}

// TryLock пытается взять замок занятости символа без ожидания
func (g *SymbolGuard) TryLock() bool {
	return g.mu.TryLock()
}

// Lock блокирующе берёт замок занятости
func (g *SymbolGuard) Lock() {
	g.mu.Lock()
}

// Unlock отпускает замок занятости
func (g *SymbolGuard) Unlock() {
	g.mu.Unlock()
}

// Symbol возвращает символ охраны
func (g *SymbolGuard) Symbol() string {
	return g.symbol
}

// State возвращает текущее состояние. Вызывается под замком.
func (g *SymbolGuard) State() string {
	return g.state
}

// Transition переводит охрану в состояние to с проверкой допустимости.
// Вызывается под замком.
func (g *SymbolGuard) Transition(to string) error {
	if !CanTransition(g.state, to) {
		return fmt.Errorf("%w: %s -> %s (%s)", ErrInvalidTransition, g.state, to, g.symbol)
	}
	ActiveGuards.WithLabelValues(g.state).Dec()
	ActiveGuards.WithLabelValues(to).Inc()
	g.state = to
	return nil
}

// Order возвращает охраняемый ордер. Вызывается под замком.
func (g *SymbolGuard) Order() *models.LimitSellOrder {
	return g.order
}

// SetOrder назначает охраняемый ордер. Вызывается под замком.
func (g *SymbolGuard) SetOrder(order *models.LimitSellOrder) {
	g.order = order
}

// Safeguard возвращает трейлинг-стоп символа. Вызывается под замком.
func (g *SymbolGuard) Safeguard() *Safeguard {
	return &g.safeguard
}

// SetMetrics сохраняет метрики последнего цикла. Вызывается под замком.
func (g *SymbolGuard) SetMetrics(m models.GuardMetrics) {
	g.metrics = m
	g.lastEval = time.Now()
}

// Metrics возвращает метрики последнего цикла. Вызывается под замком.
func (g *SymbolGuard) Metrics() models.GuardMetrics {
	return g.metrics
}

// SetPendingSell сохраняет маркер незавершённой продажи. Вызывается под замком.
func (g *SymbolGuard) SetPendingSell(p *PendingSell) {
	g.pendingSell = p
}

// PendingSell возвращает маркер незавершённой продажи, либо nil.
// Вызывается под замком.
func (g *SymbolGuard) PendingSell() *PendingSell {
	return g.pendingSell
}

// SetLastReason сохраняет последний вердикт выхода. Вызывается под замком.
func (g *SymbolGuard) SetLastReason(r models.AutoExitReason) {
	g.lastReason = &r
}

// ResetToIdle сбрасывает охрану: ордер исчез или выход завершён.
// Вызывается под замком.
func (g *SymbolGuard) ResetToIdle() {
	g.order = nil
	g.safeguard.Reset()
	g.metrics = models.GuardMetrics{}
	g.pendingSell = nil
	ClearSafeguardStop(g.symbol)
	if g.state != models.GuardStateIdle {
		ActiveGuards.WithLabelValues(g.state).Dec()
		ActiveGuards.WithLabelValues(models.GuardStateIdle).Inc()
		g.state = models.GuardStateIdle
	}
}

// Status возвращает снимок состояния охраны для API.
// Берёт замок сам: может подождать завершения текущей оценки.
func (g *SymbolGuard) Status(enabled bool) models.SymbolGuardStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	status := models.SymbolGuardStatus{
		Symbol:         g.symbol,
		State:          g.state,
		Enabled:        enabled,
		LastExitReason: g.lastReason,
		LastEvaluated:  g.lastEval,
	}
	if g.order != nil {
		m := g.metrics
		status.Metrics = &m
	}
	return status
}
