package guard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"stopguard/internal/exchange"
	"stopguard/internal/models"
	"stopguard/pkg/ratelimit"
)

// FlagProvider отдаёт состояние управляющих флагов
type FlagProvider interface {
	IsEnabled(ctx context.Context, name string) (bool, error)
}

// StopLossProvider отдаёт действующий процент стоп-лосса символа
// (персональный или глобальный fallback)
type StopLossProvider interface {
	PercentFor(ctx context.Context, symbol string) (float64, error)
}

// SymbolProvider отдаёт список отслеживаемых символов
type SymbolProvider interface {
	TrackedSymbols(ctx context.Context) ([]string, error)
}

// ErrGuardNotActive возвращается при ручной продаже символа без охраны
var ErrGuardNotActive = errors.New("symbol guard is not active")

// ErrDustPosition возвращается при ручной продаже остатка ниже порога пыли
var ErrDustPosition = errors.New("position balance below dust threshold")

// SchedulerConfig - настройки планировщика охраны
type SchedulerConfig struct {
	// TickInterval - период цикла оценки всех символов
	TickInterval time.Duration

	// WorkerPoolSize - максимум параллельно оцениваемых символов
	WorkerPoolSize int

	// EvalTimeout - таймаут одного цикла оценки символа
	EvalTimeout time.Duration

	// CandleFetchLimit - сколько свечей запрашивать у биржи за цикл.
	// Должно покрывать warmup самого длинного индикатора.
	CandleFetchLimit int

	// DefaultSellPercent - процент позиции для авто-продажи
	DefaultSellPercent float64

	Indicator  IndicatorConfig
	Classifier ClassifierConfig
	Decision   DecisionConfig
}

// Scheduler управляет жизненным циклом охраны всех символов.
//
// Каждый тик все отслеживаемые символы оцениваются независимо в
// ограниченном пуле воркеров. Символ, чья предыдущая оценка ещё не
// завершилась, пропускается без постановки в очередь. Паника в оценке
// одного символа изолируется и не валит процесс.
type Scheduler struct {
	cfg      SchedulerConfig
	exchange exchange.Exchange
	flags    FlagProvider
	stopLoss StopLossProvider
	symbols  SymbolProvider
	coord    *Coordinator
	engine   *DecisionEngine
	classif  *Classifier
	limiter  *ratelimit.RateLimiter

	mu      sync.Mutex
	guards  map[string]*SymbolGuard
	windows map[windowKey]*CandleWindow

	wg sync.WaitGroup
}

type windowKey struct {
	symbol    string
	timeframe models.Timeframe
}

// NewScheduler создаёт планировщик
func NewScheduler(
	cfg SchedulerConfig,
	ex exchange.Exchange,
	flags FlagProvider,
	stopLoss StopLossProvider,
	symbols SymbolProvider,
	coord *Coordinator,
	limiter *ratelimit.RateLimiter,
) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 4
	}
	if cfg.EvalTimeout <= 0 {
		cfg.EvalTimeout = 30 * time.Second
	}
	if cfg.CandleFetchLimit <= 0 {
		cfg.CandleFetchLimit = 120
	}
	if cfg.DefaultSellPercent <= 0 {
		cfg.DefaultSellPercent = 100
	}
	return &Scheduler{
		cfg:      cfg,
		exchange: ex,
		flags:    flags,
		stopLoss: stopLoss,
		symbols:  symbols,
		coord:    coord,
		engine:   NewDecisionEngine(cfg.Decision),
		classif:  NewClassifier(cfg.Classifier),
		limiter:  limiter,
		guards:   make(map[string]*SymbolGuard),
		windows:  make(map[windowKey]*CandleWindow),
	}
}

// Run запускает цикл планировщика и блокируется до отмены контекста.
// Начатые оценки символов дорабатывают до конца перед возвратом.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("guard scheduler started: tick=%s workers=%d", s.cfg.TickInterval, s.cfg.WorkerPoolSize)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, s.cfg.WorkerPoolSize)

	s.tick(ctx, sem)
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			log.Printf("guard scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx, sem)
		}
	}
}

// tick раздаёт оценку символов воркерам
func (s *Scheduler) tick(ctx context.Context, sem chan struct{}) {
	symbols, err := s.symbols.TrackedSymbols(ctx)
	if err != nil {
		log.Printf("guard tick: tracked symbols unavailable: %v", err)
		return
	}

	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			return
		case sem <- struct{}{}:
		}

		s.wg.Add(1)
		go func(symbol string) {
			defer s.wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					RecordEvaluation(symbol, "error", 0)
					log.Printf("[%s] evaluation panic recovered: %v", symbol, r)
				}
			}()
			s.evaluateSymbol(ctx, symbol)
		}(symbol)
	}
}

// guardFor возвращает (создавая при необходимости) охрану символа
func (s *Scheduler) guardFor(symbol string) *SymbolGuard {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guards[symbol]
	if !ok {
		g = NewSymbolGuard(symbol)
		s.guards[symbol] = g
	}
	return g
}

// windowFor возвращает (создавая при необходимости) окно свечей
func (s *Scheduler) windowFor(symbol string, tf models.Timeframe) *CandleWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := windowKey{symbol: symbol, timeframe: tf}
	w, ok := s.windows[key]
	if !ok {
		w = NewCandleWindow(symbol, tf, s.cfg.Indicator)
		s.windows[key] = w
	}
	return w
}

// evaluateSymbol выполняет один цикл оценки символа
func (s *Scheduler) evaluateSymbol(ctx context.Context, symbol string) {
	sg := s.guardFor(symbol)
	if !sg.TryLock() {
		// Предыдущая оценка ещё не завершилась - пропускаем, не копим очередь
		RecordEvaluation(symbol, "skipped_busy", 0)
		return
	}
	defer sg.Unlock()

	enabled, err := s.autoExitEnabled(ctx, symbol)
	if err != nil {
		RecordEvaluation(symbol, "error", 0)
		log.Printf("[%s] flag check failed: %v", symbol, err)
		return
	}
	if !enabled {
		// Охрана выключена: оценка пропускается, но трейлинг-стоп и
		// состояние НЕ сбрасываются - включение продолжит с того же места
		RecordEvaluation(symbol, "skipped_disabled", 0)
		return
	}

	evalCtx, cancel := context.WithTimeout(ctx, s.cfg.EvalTimeout)
	defer cancel()

	start := time.Now()
	if err := s.evaluate(evalCtx, sg); err != nil {
		RecordEvaluation(symbol, "error", 0)
		log.Printf("[%s] evaluation failed: %v", symbol, err)
		return
	}
	RecordEvaluation(symbol, "ok", time.Since(start).Seconds())
}

// autoExitEnabled проверяет глобальный и персональный флаги авто-выхода
func (s *Scheduler) autoExitEnabled(ctx context.Context, symbol string) (bool, error) {
	global, err := s.flags.IsEnabled(ctx, models.FlagAutoExitEnabled)
	if err != nil {
		return false, err
	}
	if !global {
		return false, nil
	}
	return s.flags.IsEnabled(ctx, models.SymbolAutoExitFlag(symbol))
}

// evaluate - тело одного цикла оценки. Вызывается под замком символа.
func (s *Scheduler) evaluate(ctx context.Context, sg *SymbolGuard) error {
	symbol := sg.Symbol()

	order, err := s.resolveGuardedOrder(ctx, sg)
	if err != nil {
		return err
	}
	if order == nil {
		// Охранять нечего
		return nil
	}

	// Рыночные данные
	if err := s.refreshWindows(ctx, symbol); err != nil {
		return err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	trades, err := s.exchange.GetTradeHistory(ctx, symbol)
	if err != nil {
		return fmt.Errorf("trade history: %w", err)
	}
	avgBuy := AverageBuyPrice(trades)

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	ticker, err := s.exchange.GetTicker(ctx, symbol)
	if err != nil {
		return fmt.Errorf("ticker: %w", err)
	}
	price := ticker.LastPrice

	stopPct, err := s.stopLoss.PercentFor(ctx, symbol)
	if err != nil {
		return fmt.Errorf("stop loss percent: %w", err)
	}

	// Трейлинг-стоп
	stopPrice := sg.Safeguard().Update(order.ID, avgBuy, price, stopPct)
	UpdateSafeguardStop(symbol, stopPrice)

	metrics := models.GuardMetrics{
		LimitSellOrder:       order,
		StopLossPercentValue: stopPct,
		AvgBuyPrice:          avgBuy,
		SafeguardStopPrice:   stopPrice,
	}
	sg.SetMetrics(metrics)

	// Сигналы и вердикт
	now := time.Now()
	signal1h := s.classif.Classify(s.windowFor(symbol, models.Timeframe1h), now)
	atr4h := s.windowFor(symbol, models.Timeframe4h).Indicators().ATR()

	reason := s.engine.Evaluate(metrics, signal1h, atr4h, price)
	sg.SetLastReason(reason)

	if !s.engine.ShouldAction(symbol, order.ID, reason) {
		return nil
	}

	item, err := models.NewImmediateSellOrderItem(order.ID, s.cfg.DefaultSellPercent)
	if err != nil {
		return err
	}
	if err := s.coord.ExecuteExit(ctx, sg, item, reason); err != nil {
		// Выход не состоялся - снять маркер, чтобы следующий цикл повторил
		s.engine.ClearAction(symbol)
		return fmt.Errorf("execute exit: %w", err)
	}
	return nil
}

// resolveGuardedOrder сверяет локальное состояние с биржей и возвращает
// охраняемый ордер (nil, если охранять нечего). Биржа - источник истины.
func (s *Scheduler) resolveGuardedOrder(ctx context.Context, sg *SymbolGuard) (*models.LimitSellOrder, error) {
	symbol := sg.Symbol()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	open, err := s.exchange.GetOpenOrders(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("open orders: %w", err)
	}

	current := sg.Order()
	if current != nil {
		for _, o := range open {
			if o.ID == current.ID {
				sg.SetOrder(o)
				return o, nil
			}
		}
		// Охраняемый ордер пропал из открытых: выясняем судьбу
		final, qerr := s.exchange.GetOrder(ctx, current.ID)
		switch {
		case qerr == nil && final.Status == models.OrderStatusFilled:
			s.coord.ReconcileExternalFill(sg, current.ID)
		case qerr == nil && models.OrderTerminal(final.Status):
			if pending := sg.PendingSell(); pending != nil && pending.CancelledOrderID == current.ID {
				// Лимитник сняли мы сами, но продажа остатка сорвалась - дожать
				if rerr := s.coord.ResumePendingSell(ctx, sg); rerr != nil {
					return nil, fmt.Errorf("resume pending sell: %w", rerr)
				}
				break
			}
			log.Printf("[%s] guarded order %s ended as %s externally", symbol, current.ID, final.Status)
			sg.ResetToIdle()
		case errors.Is(qerr, exchange.ErrOrderNotFound):
			if pending := sg.PendingSell(); pending != nil && pending.CancelledOrderID == current.ID {
				if rerr := s.coord.ResumePendingSell(ctx, sg); rerr != nil {
					return nil, fmt.Errorf("resume pending sell: %w", rerr)
				}
				break
			}
			sg.ResetToIdle()
		case qerr != nil:
			return nil, fmt.Errorf("order status: %w", qerr)
		default:
			// Нетерминальный статус вне списка открытых (partially_cancelled)
			sg.SetOrder(final)
			return final, nil
		}
		s.engine.ClearAction(symbol)
	}

	// Взять под охрану самый свежий открытый лимитник на продажу
	var newest *models.LimitSellOrder
	for _, o := range open {
		if o.Symbol != symbol {
			continue
		}
		if newest == nil || o.CreatedAt.After(newest.CreatedAt) {
			newest = o
		}
	}
	if newest == nil {
		return nil, nil
	}

	if sg.State() == models.GuardStateIdle {
		if err := sg.Transition(models.GuardStateGuarding); err != nil {
			return nil, err
		}
	}
	sg.SetOrder(newest)
	return newest, nil
}

// refreshWindows обновляет окна свечей обоих таймфреймов
func (s *Scheduler) refreshWindows(ctx context.Context, symbol string) error {
	for _, tf := range models.Timeframes() {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		candles, err := s.exchange.GetCandles(ctx, symbol, tf, s.cfg.CandleFetchLimit)
		if err != nil {
			return fmt.Errorf("candles %s: %w", tf, err)
		}
		if err := s.windowFor(symbol, tf).Refresh(candles); err != nil {
			// Неполные данные: цикл для таймфрейма пропущен, окно не тронуто
			return err
		}
	}
	return nil
}

// ManualSell принудительно закрывает позицию символа по рынку.
// Блокируется до освобождения символа текущей оценкой.
func (s *Scheduler) ManualSell(ctx context.Context, symbol string, percent float64) error {
	sg := s.guardFor(symbol)

	sg.Lock()
	defer sg.Unlock()

	order := sg.Order()
	if order == nil || sg.State() != models.GuardStateGuarding {
		return fmt.Errorf("%w: %s", ErrGuardNotActive, symbol)
	}

	if err := s.checkEffectiveBalance(ctx, symbol); err != nil {
		return err
	}

	item, err := models.NewImmediateSellOrderItem(order.ID, percent)
	if err != nil {
		return err
	}

	RecordExitTrigger(symbol, "manual")
	if err := s.coord.ExecuteExit(ctx, sg, item, models.AutoExitReason{}); err != nil {
		return err
	}
	return nil
}

// checkEffectiveBalance отклоняет продажу пылевого остатка.
// Символ без записи в кошельке не блокируется: биржа может не
// возвращать нулевые балансы.
func (s *Scheduler) checkEffectiveBalance(ctx context.Context, symbol string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	balances, err := s.exchange.GetWalletBalances(ctx)
	if err != nil {
		return fmt.Errorf("wallet balances: %w", err)
	}
	for _, b := range balances {
		if b.Currency == symbol && !b.IsEffective() {
			return fmt.Errorf("%w: %s", ErrDustPosition, symbol)
		}
	}
	return nil
}

// Statuses возвращает снимки состояния охраны всех символов
func (s *Scheduler) Statuses(ctx context.Context) []models.SymbolGuardStatus {
	s.mu.Lock()
	guards := make([]*SymbolGuard, 0, len(s.guards))
	for _, g := range s.guards {
		guards = append(guards, g)
	}
	s.mu.Unlock()

	statuses := make([]models.SymbolGuardStatus, 0, len(guards))
	for _, g := range guards {
		enabled, err := s.autoExitEnabled(ctx, g.Symbol())
		if err != nil {
			enabled = false
		}
		statuses = append(statuses, g.Status(enabled))
	}
	return statuses
}

// Status возвращает снимок состояния охраны одного символа
func (s *Scheduler) Status(ctx context.Context, symbol string) (models.SymbolGuardStatus, bool) {
	s.mu.Lock()
	g, ok := s.guards[symbol]
	s.mu.Unlock()
	if !ok {
		return models.SymbolGuardStatus{}, false
	}
	enabled, err := s.autoExitEnabled(ctx, symbol)
	if err != nil {
		enabled = false
	}
	return g.Status(enabled), true
}
