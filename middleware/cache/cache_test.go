package cache

import (
	"context"
	"testing"
	"time"

	"github.com/chris9740/swiftdns/cache"
	"github.com/chris9740/swiftdns/doh"
	"github.com/chris9740/swiftdns/domain"
	"github.com/chris9740/swiftdns/middleware"
	"github.com/chris9740/swiftdns/mock"
	"github.com/jonboulle/clockwork"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resolver replies like the forwarder does.
type resolver struct {
	calls  int
	result *doh.Msg
	rcode  int
}

func (r *resolver) Name() string { return "resolver" }

func (r *resolver) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	r.calls++
	ch.Result = r.result
	_ = ch.Reply(r.rcode, r.result.Answer)
}

var question = domain.Question{Name: "example.com", Type: domain.TypeA}

func serve(c *Cache, r *resolver) *mock.Writer {
	ch := middleware.NewChain([]middleware.Handler{c, r})

	req := new(dns.Msg)
	req.SetQuestion("example.com.", dns.TypeA)

	mw := mock.NewWriter("udp", "127.0.0.1:0")
	ch.Reset(mw, req)
	ch.Question = question
	ch.Next(context.Background())

	return mw
}

func Test_Cache(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := cache.New(0, clock)

	c := New(store)
	assert.Equal(t, "cache", c.Name())

	r := &resolver{
		rcode: dns.RcodeSuccess,
		result: &doh.Msg{Answer: []doh.RR{
			{Name: "example.com", Type: dns.TypeA, TTL: 300, Data: "93.184.216.34"},
		}},
	}

	mw := serve(c, r)
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, dns.RcodeSuccess, mw.Rcode())

	clock.Advance(299 * time.Second)

	mw = serve(c, r)
	assert.Equal(t, 1, r.calls)
	require.Len(t, mw.Msg().Answer, 1)
	assert.Equal(t, "93.184.216.34", mw.Msg().Answer[0].(*dns.A).A.String())
	assert.True(t, mw.Msg().Authoritative)

	clock.Advance(2 * time.Second)

	serve(c, r)
	assert.Equal(t, 2, r.calls)
}

func Test_CacheSkipsNXDomain(t *testing.T) {
	store := cache.New(0, clockwork.NewFakeClock())
	c := New(store)

	r := &resolver{rcode: dns.RcodeNameError, result: &doh.Msg{Status: 3}}

	mw := serve(c, r)
	assert.Equal(t, dns.RcodeNameError, mw.Rcode())

	serve(c, r)
	assert.Equal(t, 2, r.calls)
	assert.Equal(t, 0, store.Len())
}
