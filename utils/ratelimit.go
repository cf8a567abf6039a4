package utils

import (
	"context"
	"sync"
	"time"
)

// RateLimiter limita a quantidade de requisições por chave em uma janela deslizante
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter cria um RateLimiter que aceita limit requisições por window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// prune mantém apenas os registros da chave ainda dentro da janela. Exige rl.mu.
func (rl *RateLimiter) prune(key string, now time.Time) []time.Time {
	hits := rl.hits[key]
	cutoff := now.Add(-rl.window)

	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	hits = hits[i:]

	if len(hits) == 0 {
		delete(rl.hits, key)
		return nil
	}
	rl.hits[key] = hits
	return hits
}

// Allow informa se a requisição da chave cabe na janela e, se couber, a contabiliza
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.prune(key, now)) >= rl.limit {
		return false
	}
	rl.hits[key] = append(rl.hits[key], now)
	return true
}

// Reset zera o contador da chave
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.hits, key)
}

// Remaining retorna quantas requisições ainda cabem na janela
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	remaining := rl.limit - len(rl.prune(key, rl.now()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetAt retorna quando a requisição mais antiga da chave sai da janela
func (rl *RateLimiter) ResetAt(key string) time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	hits := rl.prune(key, now)
	if len(hits) == 0 {
		return now
	}
	return hits[0].Add(rl.window)
}

// Sweep descarta as chaves sem requisições na janela e retorna quantas foram removidas
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key := range rl.hits {
		if rl.prune(key, now) == nil {
			removed++
		}
	}
	return removed
}

// RunJanitor executa Sweep a cada janela até o contexto ser cancelado
func (rl *RateLimiter) RunJanitor(ctx context.Context) {
	if rl.window <= 0 {
		return
	}
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Sweep(); n > 0 {
				LogDebug("Limitador de requisições: %d chave(s) inativa(s) removida(s)", n)
			}
		}
	}
}
