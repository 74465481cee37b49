package sentiment

import (
	"sync"
	"time"
)

// CircuitBreaker guards an external sentiment source: after consecutive
// failures reach the threshold, calls are skipped (Allow returns false)
// until the cooldown elapses, so a struggling external source is dropped
// from aggregation instead of stalling it.
type CircuitBreaker struct {
	mu              sync.Mutex
	failureThreshold int
	cooldown        time.Duration
	consecutive     int
	openedAt        time.Time
	open            bool
}

func NewCircuitBreaker(failureThreshold int, cooldown time.Duration) *CircuitBreaker {
	if cooldown == 0 {
		cooldown = 60 * time.Second
	}
	return &CircuitBreaker{failureThreshold: failureThreshold, cooldown: cooldown}
}

// Allow reports whether a call should proceed, auto-closing the breaker
// once the cooldown has elapsed since it opened.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	if time.Since(b.openedAt) >= b.cooldown {
		b.open = false
		b.consecutive = 0
		return true
	}
	return false
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive = 0
	b.open = false
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive++
	if b.consecutive >= b.failureThreshold {
		b.open = true
		b.openedAt = time.Now()
	}
}
