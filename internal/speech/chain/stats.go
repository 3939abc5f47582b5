package chain

import (
	"sync"
	"sync/atomic"
)

// Stats counts requests for /health. Counters are updated without locks;
// per-provider successes share one mutex.
type Stats struct {
	requests  atomic.Int64
	cacheHits atomic.Int64
	errors    atomic.Int64

	mu         sync.Mutex
	byProvider map[string]int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	TotalRequests int64            `json:"total_requests"`
	CacheHits     int64            `json:"cache_hits"`
	Errors        int64            `json:"errors"`
	ByProvider    map[string]int64 `json:"by_provider"`
}

func newStats() *Stats {
	return &Stats{byProvider: make(map[string]int64)}
}

func (s *Stats) success(provider string) {
	s.mu.Lock()
	s.byProvider[provider]++
	s.mu.Unlock()
}

// Snapshot copies the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	by := make(map[string]int64, len(s.byProvider))
	for k, v := range s.byProvider {
		by[k] = v
	}
	s.mu.Unlock()

	return StatsSnapshot{
		TotalRequests: s.requests.Load(),
		CacheHits:     s.cacheHits.Load(),
		Errors:        s.errors.Load(),
		ByProvider:    by,
	}
}
