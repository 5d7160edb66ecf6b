// Package cache memoizes resolution results for the lifetime of their
// records. Entries expire lazily: an expired entry is dropped by the read
// that observes it.
package cache

import (
	"sync"
	"time"

	"github.com/chris9740/swiftdns/doh"
	"github.com/chris9740/swiftdns/domain"
	"github.com/jonboulle/clockwork"
)

const segmentCount = 64

type entry struct {
	question domain.Question
	msg      *doh.Msg
	expire   time.Time
}

type segment struct {
	sync.RWMutex
	items map[uint64]*entry
}

// Cache is safe for concurrent use.
type Cache struct {
	segments [segmentCount]*segment
	clock    clockwork.Clock

	// per segment, 0 is unbounded
	limit int
}

// New returns a cache holding roughly size entries, unbounded if size <= 0.
// A nil clock means the real clock.
func New(size int, clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	c := &Cache{clock: clock}

	if size > 0 {
		c.limit = (size + segmentCount - 1) / segmentCount
	}

	for i := range c.segments {
		c.segments[i] = &segment{items: make(map[uint64]*entry)}
	}

	return c
}

func (c *Cache) segment(key uint64) *segment {
	return c.segments[key%segmentCount]
}

// Get returns a copy of the cached result for q if it has not expired.
func (c *Cache) Get(q domain.Question) (*doh.Msg, bool) {
	key := Key(q)
	s := c.segment(key)

	s.RLock()
	e, ok := s.items[key]
	s.RUnlock()

	if !ok || e.question != q {
		return nil, false
	}

	if !c.clock.Now().Before(e.expire) {
		s.Lock()
		if cur, ok := s.items[key]; ok && cur == e {
			delete(s.items, key)
		}
		s.Unlock()

		return nil, false
	}

	return e.msg.Clone(), true
}

// Set stores a copy of m for q, expiring after the smallest TTL among its
// address records. Results without address records are not stored.
func (c *Cache) Set(q domain.Question, m *doh.Msg) bool {
	ttl, ok := m.MinTTL()
	if !ok || ttl == 0 {
		return false
	}

	now := c.clock.Now()
	e := &entry{
		question: q,
		msg:      m.Clone(),
		expire:   now.Add(time.Duration(ttl) * time.Second),
	}

	key := Key(q)
	s := c.segment(key)

	s.Lock()
	defer s.Unlock()

	if _, exists := s.items[key]; !exists && c.limit > 0 && len(s.items) >= c.limit {
		s.evict(now)
	}

	s.items[key] = e

	return true
}

// evict drops expired entries, or one arbitrary entry when none expired.
func (s *segment) evict(now time.Time) {
	removed := false
	for k, e := range s.items {
		if !now.Before(e.expire) {
			delete(s.items, k)
			removed = true
		}
	}

	if removed {
		return
	}

	for k := range s.items {
		delete(s.items, k)
		return
	}
}

// Remove deletes the entry for q.
func (c *Cache) Remove(q domain.Question) {
	key := Key(q)
	s := c.segment(key)

	s.Lock()
	if e, ok := s.items[key]; ok && e.question == q {
		delete(s.items, key)
	}
	s.Unlock()
}

// Purge deletes every entry.
func (c *Cache) Purge() {
	for _, s := range c.segments {
		s.Lock()
		s.items = make(map[uint64]*entry)
		s.Unlock()
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.segments {
		s.RLock()
		n += len(s.items)
		s.RUnlock()
	}
	return n
}
