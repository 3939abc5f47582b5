package apikey

import (
	"sync"

	"golang.org/x/time/rate"
)

const maxLimiters = 10000

// Limiter enforces per-key requests-per-minute budgets.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLimiter() *Limiter {
	return &Limiter{limiters: make(map[string]*rate.Limiter)}
}

// Allow reports whether key may make another request. perMin <= 0 means
// unlimited.
func (l *Limiter) Allow(key string, perMin int) bool {
	if perMin <= 0 {
		return true
	}

	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok || lim.Burst() != perMin {
		// Evict an arbitrary entry if at capacity.
		if !ok && len(l.limiters) >= maxLimiters {
			for k := range l.limiters {
				delete(l.limiters, k)
				break
			}
		}
		lim = rate.NewLimiter(rate.Limit(float64(perMin)/60), perMin)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
