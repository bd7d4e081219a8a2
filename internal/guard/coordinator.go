package guard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"stopguard/internal/exchange"
	"stopguard/internal/models"
	"stopguard/pkg/retry"
	"stopguard/pkg/utils"
)

// amountStep - шаг объёма рыночной продажи; биржа отклоняет
// заявки с точностью выше 8 знаков
const amountStep = 1e-8

// NotifyFunc доставляет уведомление подписчикам (БД + websocket)
type NotifyFunc func(*models.Notification)

// CoordinatorConfig - настройки координатора исполнения выхода
type CoordinatorConfig struct {
	// ConfirmTimeout - максимальное время ожидания подтверждения
	// рыночной продажи биржей
	ConfirmTimeout time.Duration

	// ConfirmPollInterval - период опроса статуса ордера при подтверждении
	ConfirmPollInterval time.Duration

	// MaxRetries - число попыток cancel/sell запросов к бирже
	MaxRetries int

	// RetryBaseDelay - начальная задержка между попытками
	RetryBaseDelay time.Duration
}

// Coordinator исполняет авто-выход: снимает охраняемый лимитный ордер
// и немедленно продаёт позицию по рынку.
//
// Последовательность строгая: сначала cancel, затем market sell. Продажа
// без подтверждённого снятия лимитника недопустима: обе заявки могли бы
// исполниться одновременно.
type Coordinator struct {
	exchange exchange.Exchange
	notify   NotifyFunc
	cfg      CoordinatorConfig
}

// NewCoordinator создаёт координатор
func NewCoordinator(ex exchange.Exchange, notify NotifyFunc, cfg CoordinatorConfig) *Coordinator {
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 30 * time.Second
	}
	if cfg.ConfirmPollInterval <= 0 {
		cfg.ConfirmPollInterval = time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 6
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 50 * time.Millisecond
	}
	if notify == nil {
		notify = func(*models.Notification) {}
	}
	return &Coordinator{exchange: ex, notify: notify, cfg: cfg}
}

// retryIfExchangeTransient пропускает в retry только временные ошибки биржи
func retryIfExchangeTransient(err error) bool {
	return !exchange.IsPermanent(err) && retry.RetryIfNotContext(err)
}

// ExecuteExit выполняет процедуру выхода по охраняемому ордеру.
//
// Вызывается под замком символа. Предварительно охрана переводится в
// EXIT_PENDING; при невосстановимой ошибке охрана возвращается в
// GUARDING и ошибка отдаётся вызывающему (маркер идемпотентности
// снимает планировщик, чтобы следующий цикл повторил попытку).
func (c *Coordinator) ExecuteExit(ctx context.Context, sg *SymbolGuard, item models.ImmediateSellOrderItem, reason models.AutoExitReason) error {
	order := sg.Order()
	if order == nil || order.ID != item.SellOrderID {
		return fmt.Errorf("guarded order mismatch: have %v, exit for %s", order, item.SellOrderID)
	}

	if err := sg.Transition(models.GuardStateExitPending); err != nil {
		return err
	}
	sg.SetLastReason(reason)

	symbol := sg.Symbol()
	log.Printf("[%s] auto-exit started: order=%s reason=%+v", symbol, order.ID, reason)
	c.notifyExitTriggered(symbol, order.ID, reason)

	// Шаг 1: снять лимитный ордер
	cancelled, external, err := c.cancelGuardedOrder(ctx, order)
	if err != nil {
		RecordExitFailure(symbol, "cancel")
		c.notifyError(symbol, fmt.Sprintf("cancel order %s failed: %v", order.ID, err))
		return c.abortExit(sg, fmt.Errorf("cancel order %s: %w", order.ID, err))
	}
	if external {
		// Ордер уже исполнен на бирже: продавать нечего, позиция закрыта извне
		log.Printf("[%s] order %s already filled externally, reconciling", symbol, order.ID)
		c.ReconcileExternalFill(sg, order.ID)
		return nil
	}

	// Шаг 2: лимитник снят - остаток позиции обязан быть продан.
	// Маркер фиксирует долг по продаже: если продажа сорвётся, он
	// переживёт откат в GUARDING и следующий цикл дожмёт выход.
	amount := utils.RoundToStep((cancelled.Amount-cancelled.FilledAmt)*item.PercentToSell/100, amountStep)
	if amount <= 0 {
		log.Printf("[%s] nothing to sell after cancel of %s, going idle", symbol, order.ID)
		sg.ResetToIdle()
		return nil
	}
	pending := &PendingSell{
		CancelledOrderID: order.ID,
		Amount:           amount,
		Reason:           reason,
	}
	sg.SetPendingSell(pending)

	return c.sellAndConfirm(ctx, sg, pending)
}

// ResumePendingSell дожимает продажу, начатую ранее: охраняемый лимитник
// уже снят, но рыночная заявка не была подтверждена. Вызывается под замком
// символа из состояния GUARDING. Без маркера - no-op.
func (c *Coordinator) ResumePendingSell(ctx context.Context, sg *SymbolGuard) error {
	pending := sg.PendingSell()
	if pending == nil {
		return nil
	}
	if err := sg.Transition(models.GuardStateExitPending); err != nil {
		return err
	}
	log.Printf("[%s] resuming interrupted exit: cancelled=%s amount=%.8f",
		sg.Symbol(), pending.CancelledOrderID, pending.Amount)
	return c.sellAndConfirm(ctx, sg, pending)
}

// errMarketOrderDead - рыночная заявка завершилась без исполнения,
// повтор должен размещать новую заявку
var errMarketOrderDead = errors.New("market order ended without fill")

// sellAndConfirm размещает рыночную продажу по маркеру и ждёт подтверждения.
// Охрана уже в EXIT_PENDING; при ошибке откатывается в GUARDING, маркер
// остаётся до успешного подтверждения.
func (c *Coordinator) sellAndConfirm(ctx context.Context, sg *SymbolGuard, pending *PendingSell) error {
	symbol := sg.Symbol()

	if pending.MarketOrderID == "" {
		marketOrderID, err := retry.DoWithResult(ctx, func() (string, error) {
			return c.exchange.PlaceMarketSellOrder(ctx, symbol, pending.Amount)
		}, c.sellRetryConfig(symbol))
		if err != nil {
			RecordExitFailure(symbol, "sell")
			c.notifyError(symbol, fmt.Sprintf("market sell failed after cancel of %s: %v", pending.CancelledOrderID, err))
			return c.abortExit(sg, fmt.Errorf("market sell %s: %w", symbol, err))
		}
		pending.MarketOrderID = marketOrderID
	}

	marketOrderID := pending.MarketOrderID
	if err := c.confirmFill(ctx, symbol, marketOrderID); err != nil {
		if errors.Is(err, errMarketOrderDead) {
			// Заявка мертва - при повторе размещаем новую
			pending.MarketOrderID = ""
		}
		RecordExitFailure(symbol, "confirm")
		c.notifyError(symbol, fmt.Sprintf("market sell %s not confirmed: %v", marketOrderID, err))
		return c.abortExit(sg, fmt.Errorf("confirm market sell %s: %w", marketOrderID, err))
	}

	if err := sg.Transition(models.GuardStateExitConfirmed); err != nil {
		return err
	}
	RecordExitConfirmed(symbol)
	c.notify(&models.Notification{
		Timestamp: time.Now(),
		Type:      models.NotificationTypeAutoExit,
		Severity:  models.SeverityInfo,
		Symbol:    &symbol,
		Message:   fmt.Sprintf("Auto-exit executed: sold %.8f %s at market", pending.Amount, symbol),
		Meta: map[string]interface{}{
			"cancelled_order_id": pending.CancelledOrderID,
			"market_order_id":    pending.MarketOrderID,
			"amount":             pending.Amount,
			"reason":             pending.Reason,
		},
	})

	log.Printf("[%s] auto-exit confirmed: market order %s", symbol, pending.MarketOrderID)
	sg.ResetToIdle()
	return nil
}

// cancelGuardedOrder снимает ордер с повторными попытками.
//
// Возвращает (актуальный ордер, true если ордер уже исполнен извне, ошибка).
func (c *Coordinator) cancelGuardedOrder(ctx context.Context, order *models.LimitSellOrder) (*models.LimitSellOrder, bool, error) {
	cfg := c.retryConfig()

	err := retry.Do(ctx, func() error {
		return c.exchange.CancelOrder(ctx, order.ID)
	}, cfg)

	if err == nil {
		// Запросить финальное состояние: часть могла исполниться до снятия
		current, qerr := c.exchange.GetOrder(ctx, order.ID)
		if qerr != nil {
			// Снятие прошло, статус недоступен - работаем с последним известным
			return order, false, nil
		}
		if current.Status == models.OrderStatusFilled {
			return current, true, nil
		}
		return current, false, nil
	}

	if errors.Is(err, exchange.ErrOrderNotFound) {
		// Ордер исчез: либо исполнен, либо снят извне
		return order, true, nil
	}

	// Постоянная ошибка может означать, что ордер уже в терминальном статусе
	current, qerr := c.exchange.GetOrder(ctx, order.ID)
	if qerr == nil && models.OrderTerminal(current.Status) {
		return current, current.Status == models.OrderStatusFilled, nil
	}
	return nil, false, err
}

// retryConfig строит базовый retry для запросов к бирже из настроек
func (c *Coordinator) retryConfig() retry.Config {
	cfg := retry.AggressiveConfig()
	cfg.MaxRetries = c.cfg.MaxRetries
	cfg.InitialDelay = c.cfg.RetryBaseDelay
	cfg.RetryIf = retryIfExchangeTransient
	return cfg
}

// sellRetryConfig - retry рыночной продажи с логированием попыток
func (c *Coordinator) sellRetryConfig(symbol string) retry.Config {
	cfg := c.retryConfig()
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Printf("[%s] market sell attempt %d failed: %v (retry in %s)", symbol, attempt, err, delay)
	}
	return cfg
}

// confirmFill опрашивает биржу до исполнения ордера или истечения таймаута
func (c *Coordinator) confirmFill(ctx context.Context, symbol, orderID string) error {
	deadline := time.Now().Add(c.cfg.ConfirmTimeout)
	ticker := time.NewTicker(c.cfg.ConfirmPollInterval)
	defer ticker.Stop()

	for {
		current, err := c.exchange.GetOrder(ctx, orderID)
		if err == nil {
			switch current.Status {
			case models.OrderStatusFilled:
				return nil
			case models.OrderStatusCancelled, models.OrderStatusInactive:
				return fmt.Errorf("market order %s ended as %s: %w", orderID, current.Status, errMarketOrderDead)
			}
		} else if !errors.Is(err, exchange.ErrOrderNotFound) && exchange.IsPermanent(err) {
			return err
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("confirmation timeout after %s", c.cfg.ConfirmTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// abortExit возвращает охрану в GUARDING после неудачного выхода
func (c *Coordinator) abortExit(sg *SymbolGuard, cause error) error {
	if terr := sg.Transition(models.GuardStateGuarding); terr != nil {
		return errors.Join(cause, terr)
	}
	return cause
}

// ReconcileExternalFill обрабатывает исполнение охраняемого ордера извне:
// позиция закрыта самой биржей, охрана снимается. Вызывается под замком.
func (c *Coordinator) ReconcileExternalFill(sg *SymbolGuard, orderID string) {
	symbol := sg.Symbol()
	c.notify(&models.Notification{
		Timestamp: time.Now(),
		Type:      models.NotificationTypeExternalFill,
		Severity:  models.SeverityInfo,
		Symbol:    &symbol,
		Message:   fmt.Sprintf("Guarded order %s filled on the exchange, guard released", orderID),
		Meta:      map[string]interface{}{"order_id": orderID},
	})
	sg.ResetToIdle()
}

// notifyExitTriggered рассылает уведомления о причинах срабатывания
func (c *Coordinator) notifyExitTriggered(symbol, orderID string, reason models.AutoExitReason) {
	if reason.SafeguardStopPriceReached {
		RecordExitTrigger(symbol, "safeguard_stop")
		c.notify(&models.Notification{
			Timestamp: time.Now(),
			Type:      models.NotificationTypeStopReached,
			Severity:  models.SeverityWarn,
			Symbol:    &symbol,
			Message:   fmt.Sprintf("Safeguard stop price reached for order %s", orderID),
		})
	}
	if reason.AutoExitSell1h {
		RecordExitTrigger(symbol, "sell_1h")
	}
	if reason.ATRTakeProfitLimitPriceReached {
		RecordExitTrigger(symbol, "atr_take_profit")
		c.notify(&models.Notification{
			Timestamp: time.Now(),
			Type:      models.NotificationTypeTakeProfit,
			Severity:  models.SeverityInfo,
			Symbol:    &symbol,
			Message:   fmt.Sprintf("ATR take-profit level reached for order %s", orderID),
		})
	}
}

// notifyError рассылает уведомление об ошибке биржи/ордера
func (c *Coordinator) notifyError(symbol, message string) {
	c.notify(&models.Notification{
		Timestamp: time.Now(),
		Type:      models.NotificationTypeError,
		Severity:  models.SeverityError,
		Symbol:    &symbol,
		Message:   message,
	})
}
