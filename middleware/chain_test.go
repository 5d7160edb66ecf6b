package middleware

import (
	"context"
	"testing"

	"github.com/chris9740/swiftdns/doh"
	"github.com/chris9740/swiftdns/domain"
	"github.com/chris9740/swiftdns/mock"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	name  string
	calls *[]string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) ServeDNS(ctx context.Context, ch *Chain) {
	*r.calls = append(*r.calls, r.name)
	ch.Next(ctx)
}

func Test_Chain(t *testing.T) {
	var calls []string

	ch := NewChain([]Handler{
		&recorder{name: "first", calls: &calls},
		&recorder{name: "second", calls: &calls},
	})

	req := new(dns.Msg)
	req.SetQuestion("example.com.", dns.TypeA)

	ch.Reset(mock.NewWriter("udp", "127.0.0.1:0"), req)
	ch.Next(context.Background())

	assert.Equal(t, []string{"first", "second"}, calls)
	assert.False(t, ch.Writer.Written())
	assert.Equal(t, "udp", ch.Writer.Proto())
	assert.Equal(t, "127.0.0.1", ch.Writer.RemoteIP().String())

	err := ch.Reply(dns.RcodeSuccess, []doh.RR{{Name: "example.com", Type: dns.TypeA, TTL: 60, Data: "192.0.2.1"}})
	require.NoError(t, err)

	assert.True(t, ch.Writer.Written())
	assert.Equal(t, dns.RcodeSuccess, ch.Writer.Rcode())
	require.Len(t, ch.Writer.Msg().Answer, 1)

	err = ch.Reply(dns.RcodeRefused, nil)
	assert.Equal(t, errAlreadyWritten, err)

	calls = nil
	ch.Question = domain.Question{Name: "example.com", Type: domain.TypeA}
	ch.Reset(mock.NewWriter("tcp", "127.0.0.1:0"), req)

	assert.False(t, ch.Writer.Written())
	assert.Equal(t, "tcp", ch.Writer.Proto())
	assert.Equal(t, domain.Question{}, ch.Question)

	ch.Cancel()
	ch.Next(context.Background())
	assert.Empty(t, calls)
	assert.False(t, ch.Writer.Written())

	ch.Reset(mock.NewWriter("udp", "127.0.0.1:0"), req)
	ch.CancelWithRcode(dns.RcodeServerFailure)
	assert.True(t, ch.Writer.Written())
	assert.Equal(t, dns.RcodeServerFailure, ch.Writer.Rcode())
	assert.Equal(t, 0, ch.count)
}

func Test_ChainReplyMalformed(t *testing.T) {
	ch := NewChain(nil)

	req := new(dns.Msg)
	req.SetQuestion("example.com.", dns.TypeA)
	ch.Reset(mock.NewWriter("udp", "127.0.0.1:0"), req)

	err := ch.Reply(dns.RcodeSuccess, []doh.RR{{Name: "example.com", Type: dns.TypeA, TTL: 60, Data: "bogus"}})
	assert.Error(t, err)
	assert.False(t, ch.Writer.Written())
}
