package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter - token bucket для ограничения частоты запросов к бирже.
//
// Ведро пополняется со скоростью rate токенов в секунду до ёмкости burst,
// каждый запрос забирает один токен. Burst выше rate допускает короткие
// всплески: планировщик в начале цикла опрашивает свечи и ордера пачкой.
type RateLimiter struct {
	mu sync.Mutex

	rate  float64 // пополнение, токенов/сек
	burst float64 // ёмкость ведра

	tokens float64
	last   time.Time // момент последнего пересчёта
}

// NewRateLimiter создаёт limiter с полным ведром.
// Некорректные аргументы заменяются безопасными значениями:
// rate <= 0 -> 10 req/sec, burst ниже rate подтягивается до rate.
func NewRateLimiter(rate, burst float64) *RateLimiter {
	if rate <= 0 {
		rate = 10
	}
	if burst <= 0 {
		burst = rate * 2
	}
	if burst < rate {
		burst = rate
	}
	return &RateLimiter{
		rate:   rate,
		burst:  burst,
		tokens: burst,
		last:   time.Now(),
	}
}

// advance начисляет токены за время с последнего пересчёта.
// Вызывается под замком.
func (rl *RateLimiter) advance(now time.Time) {
	rl.tokens += now.Sub(rl.last).Seconds() * rl.rate
	if rl.tokens > rl.burst {
		rl.tokens = rl.burst
	}
	rl.last = now
}

// take пытается забрать токен; при нехватке возвращает время до появления
// следующего. Вызывается под замком.
func (rl *RateLimiter) take(now time.Time) (bool, time.Duration) {
	rl.advance(now)
	if rl.tokens >= 1 {
		rl.tokens--
		return true, 0
	}
	deficit := 1 - rl.tokens
	return false, time.Duration(deficit / rl.rate * float64(time.Second))
}

// Wait блокирует до получения токена или отмены контекста
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		ok, wait := rl.take(time.Now())
		rl.mu.Unlock()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Allow забирает токен без блокировки; false - ведро пусто
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	ok, _ := rl.take(time.Now())
	return ok
}

// Tokens возвращает текущий запас токенов
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.advance(time.Now())
	return rl.tokens
}
