package recovery

import (
	"context"
	"testing"

	"github.com/chris9740/swiftdns/middleware"
	"github.com/chris9740/swiftdns/mock"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

type panicker struct{}

func (p *panicker) Name() string { return "panicker" }

func (p *panicker) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	panic("boom")
}

func Test_recoveryDNS(t *testing.T) {
	r := New()
	assert.Equal(t, "recovery", r.Name())

	ch := middleware.NewChain([]middleware.Handler{r, &panicker{}})

	mw := mock.NewWriter("udp", "127.0.0.1:0")
	req := new(dns.Msg)
	req.SetQuestion("test.com.", dns.TypeA)

	ch.Reset(mw, req)

	assert.NotPanics(t, func() { ch.Next(context.Background()) })

	assert.True(t, mw.Written())
	assert.Equal(t, dns.RcodeServerFailure, mw.Msg().Rcode)
	assert.True(t, mw.Msg().Response)

	mw = mock.NewWriter("udp", "127.0.0.1:0")
	ch = middleware.NewChain([]middleware.Handler{r})
	ch.Reset(mw, req)
	ch.Next(context.Background())

	assert.False(t, mw.Written())
}
