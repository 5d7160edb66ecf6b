package ratelimit

import (
	"context"
	"net"

	"github.com/cespare/xxhash/v2"
	"github.com/chris9740/swiftdns/config"
	"github.com/chris9740/swiftdns/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/semihalev/zlog/v2"
)

// RateLimit type
type RateLimit struct {
	limiters *store
	clock    clockwork.Clock
	rate     int
}

// New return ratelimit
func New(cfg *config.Config) *RateLimit {
	return NewWithClock(cfg, clockwork.NewRealClock())
}

// NewWithClock is New with an explicit clock.
func NewWithClock(cfg *config.Config, clock clockwork.Clock) *RateLimit {
	return &RateLimit{
		limiters: newStore(storeSize, cfg.RateLimit),
		clock:    clock,
		rate:     cfg.RateLimit,
	}
}

// Name return middleware name
func (r *RateLimit) Name() string { return name }

// ServeDNS implements the Handle interface.
func (r *RateLimit) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	ip := ch.Writer.RemoteIP()

	if r.rate == 0 || ip == nil || ip.IsLoopback() {
		ch.Next(ctx)
		return
	}

	now := r.clock.Now()
	if !r.limiters.get(key(ip), now).AllowN(now, 1) {
		zlog.Debug("Query dropped by rate limit", "client", ip.String())
		// no reply to client
		ch.Cancel()
		return
	}

	ch.Next(ctx)
}

func key(ip net.IP) uint64 {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	return xxhash.Sum64(ip)
}

const (
	storeSize = 256 * 100

	name = "ratelimit"
)
