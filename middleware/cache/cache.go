package cache

import (
	"context"

	"github.com/chris9740/swiftdns/cache"
	"github.com/chris9740/swiftdns/doh"
	"github.com/chris9740/swiftdns/domain"
	"github.com/chris9740/swiftdns/middleware"
	"github.com/chris9740/swiftdns/middleware/metrics"
	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/semihalev/zlog/v2"
)

// Store holds resolution results.
type Store interface {
	Get(domain.Question) (*doh.Msg, bool)
	Set(domain.Question, *doh.Msg) bool
}

// Cache type
type Cache struct {
	store   Store
	lookups *prometheus.CounterVec
}

var _ Store = (*cache.Cache)(nil)

// New return cache
func New(store Store) *Cache {
	return &Cache{
		store:   store,
		lookups: metrics.NewCounterVec("cache_total", "Cache lookups by result.", "result"),
	}
}

// Name return middleware name
func (c *Cache) Name() string { return name }

// ServeDNS answers from the cache, or stores what the rest of the chain
// resolved.
func (c *Cache) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	q := ch.Question

	if msg, ok := c.store.Get(q); ok {
		c.lookups.WithLabelValues("hit").Inc()

		if err := ch.Reply(dns.RcodeSuccess, msg.Answer); err != nil {
			zlog.Error("Cached answer could not be encoded", "query", q.String(), "error", err.Error())
		}

		ch.Cancel()
		return
	}

	c.lookups.WithLabelValues("miss").Inc()

	ch.Next(ctx)

	w := ch.Writer
	if ch.Result == nil || !w.Written() || w.Rcode() != dns.RcodeSuccess {
		return
	}

	if c.store.Set(q, ch.Result) {
		zlog.Debug("Answer cached", "query", q.String())
	}
}

const name = "cache"
