package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket: capacity burst, refilled at rate tokens
// per second.
type Limiter struct {
	rate       float64
	burst      int
	tokens     float64
	lastUpdate time.Time
	mu         sync.Mutex
}

func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		rate:       rate,
		burst:      burst,
		tokens:     float64(burst),
		lastUpdate: time.Now(),
	}
}

func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(l.lastUpdate).Seconds()
	l.lastUpdate = now

	l.tokens += elapsed * l.rate
	if l.tokens > float64(l.burst) {
		l.tokens = float64(l.burst)
	}

	if l.tokens >= 1 {
		l.tokens--
		return true
	}

	return false
}

// PerKey hands out one Limiter per key (request IPs, in practice) and
// caps how many it will track at once.
type PerKey struct {
	limiters map[string]*Limiter
	rate     float64
	burst    int
	maxKeys  int
	mu       sync.RWMutex
}

func NewPerKey(rate float64, burst int) *PerKey {
	return &PerKey{
		limiters: make(map[string]*Limiter),
		rate:     rate,
		burst:    burst,
		maxKeys:  10000,
	}
}

// Allow reports whether the caller identified by key may proceed.
func (p *PerKey) Allow(key string) bool {
	return p.get(key).Allow()
}

func (p *PerKey) get(key string) *Limiter {
	p.mu.RLock()
	limiter, ok := p.limiters[key]
	p.mu.RUnlock()

	if ok {
		return limiter
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, ok := p.limiters[key]; ok {
		return limiter
	}

	// Crude memory bound; dropping all buckets just means every caller
	// briefly starts from a full burst again.
	if len(p.limiters) >= p.maxKeys {
		p.limiters = make(map[string]*Limiter)
	}

	limiter = NewLimiter(p.rate, p.burst)
	p.limiters[key] = limiter
	return limiter
}
