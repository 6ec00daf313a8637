package ratelimit

import (
	"sync"
	"time"
)

// Limiter is an in-memory RateLimiter.
type Limiter struct {
	mu          sync.Mutex
	clients     map[string]time.Time
	minInterval time.Duration
	now         func() time.Time
}

// New creates a Limiter that admits one request per key every minInterval.
func New(minInterval time.Duration) *Limiter {
	return &Limiter{
		clients:     make(map[string]time.Time),
		minInterval: minInterval,
		now:         time.Now,
	}
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	last, exists := l.clients[key]
	if exists && now.Sub(last) < l.minInterval {
		return false
	}
	l.clients[key] = now
	return true
}

// Prune forgets clients whose interval has elapsed. Long-running servers
// call it periodically to bound memory.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	n := 0
	for key, last := range l.clients {
		if now.Sub(last) >= l.minInterval {
			delete(l.clients, key)
			n++
		}
	}
	return n
}

func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, key)
}

var _ RateLimiter = (*Limiter)(nil)
