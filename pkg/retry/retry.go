package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Config - параметры повторных попыток.
//
// Задержка растёт экспоненциально:
// delay = min(InitialDelay * Multiplier^attempt, MaxDelay) +/- jitter.
// Jitter размазывает повторы по времени, чтобы несколько горутин
// не били в биржу синхронно после одного и того же сбоя.
type Config struct {
	// MaxRetries - число попыток, включая первую.
	// Значение <= 0 означает повторять до отмены контекста.
	MaxRetries int

	// InitialDelay - пауза после первой неудачи (default: 100ms)
	InitialDelay time.Duration

	// MaxDelay - потолок паузы (default: 30s)
	MaxDelay time.Duration

	// Multiplier - множитель роста паузы (default: 2.0)
	Multiplier float64

	// JitterFactor - доля случайного разброса паузы, 0..1 (default: 0.1)
	JitterFactor float64

	// RetryIf решает, стоит ли повторять после данной ошибки.
	// nil - повторяются все ошибки.
	RetryIf func(error) bool

	// OnRetry вызывается перед каждым повтором, удобен для логирования
	OnRetry func(attempt int, err error, delay time.Duration)
}

// AggressiveConfig - профиль для критичных операций с ордерами:
// 6 попыток с паузами 50ms, 100ms, 200ms, 400ms, 800ms
func AggressiveConfig() Config {
	return Config{
		MaxRetries:   6,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func (c *Config) normalize() {
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.JitterFactor < 0 {
		c.JitterFactor = 0
	}
	if c.JitterFactor > 1 {
		c.JitterFactor = 1
	}
}

// delayFor - пауза перед попыткой attempt+2 (после attempt неудач)
func (c *Config) delayFor(attempt int) time.Duration {
	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}
	if c.JitterFactor > 0 {
		delay += delay * c.JitterFactor * (rand.Float64()*2 - 1)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Do выполняет операцию с повторами по конфигурации.
// Возвращает nil при первом успехе, иначе последнюю ошибку.
func Do(ctx context.Context, operation func() error, cfg Config) error {
	_, err := DoWithResult(ctx, func() (struct{}, error) {
		return struct{}{}, operation()
	}, cfg)
	return err
}

// DoWithResult - вариант Do для операций, возвращающих значение:
//
//	id, err := retry.DoWithResult(ctx, func() (string, error) {
//	    return exchange.PlaceMarketSellOrder(ctx, symbol, amount)
//	}, cfg)
func DoWithResult[T any](ctx context.Context, operation func() (T, error), cfg Config) (T, error) {
	cfg.normalize()

	var zero T
	var lastErr error

	for attempt := 0; cfg.MaxRetries <= 0 || attempt < cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, ctx.Err()
		default:
		}

		result, err := operation()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if cfg.RetryIf != nil && !cfg.RetryIf(err) {
			return zero, err
		}
		if cfg.MaxRetries > 0 && attempt == cfg.MaxRetries-1 {
			break
		}

		delay := cfg.delayFor(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, lastErr
		}
	}

	return zero, lastErr
}

// RetryIfNotContext отсекает повторы после отмены контекста
func RetryIfNotContext(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
