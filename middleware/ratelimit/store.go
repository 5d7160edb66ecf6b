package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	rl       *rate.Limiter
	lastSeen time.Time
}

// store keeps one limiter per client key, dropping the least recently seen
// client once maxSize is reached.
type store struct {
	mu       sync.Mutex
	limiters map[uint64]*entry
	maxSize  int
	rate     int
}

func newStore(maxSize, rateLimit int) *store {
	return &store{
		limiters: make(map[uint64]*entry),
		maxSize:  maxSize,
		rate:     rateLimit,
	}
}

func (s *store) get(key uint64, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.limiters[key]; ok {
		e.lastSeen = now
		return e.rl
	}

	if len(s.limiters) >= s.maxSize {
		s.evictOldest()
	}

	e := &entry{
		rl:       rate.NewLimiter(rate.Limit(s.rate), s.rate),
		lastSeen: now,
	}
	s.limiters[key] = e

	return e.rl
}

func (s *store) evictOldest() {
	var (
		oldestKey  uint64
		oldestTime time.Time
		found      bool
	)

	for k, e := range s.limiters {
		if !found || e.lastSeen.Before(oldestTime) {
			oldestKey, oldestTime, found = k, e.lastSeen, true
		}
	}

	if found {
		delete(s.limiters, oldestKey)
	}
}

func (s *store) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
