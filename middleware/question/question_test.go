package question

import (
	"context"
	"testing"

	"github.com/chris9740/swiftdns/domain"
	"github.com/chris9740/swiftdns/middleware"
	"github.com/chris9740/swiftdns/mock"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

type sink struct {
	reached bool
}

func (s *sink) Name() string { return "sink" }

func (s *sink) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	s.reached = true
}

func serve(t *testing.T, req *dns.Msg) (*mock.Writer, *sink, *middleware.Chain) {
	t.Helper()

	s := &sink{}
	q := New()
	assert.Equal(t, "question", q.Name())

	ch := middleware.NewChain([]middleware.Handler{q, s})

	mw := mock.NewWriter("udp", "127.0.0.1:0")
	ch.Reset(mw, req)
	ch.Next(context.Background())

	return mw, s, ch
}

func Test_QuestionValid(t *testing.T) {
	req := new(dns.Msg)
	req.SetQuestion("WWW.Example.com.", dns.TypeAAAA)

	mw, s, ch := serve(t, req)

	assert.False(t, mw.Written())
	assert.True(t, s.reached)
	assert.Equal(t, domain.Question{Name: "www.example.com", Type: domain.TypeAAAA}, ch.Question)
}

func Test_QuestionCount(t *testing.T) {
	req := new(dns.Msg)
	req.SetQuestion("a.example.com.", dns.TypeA)
	req.Question = append(req.Question, dns.Question{Name: "b.example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET})

	mw, s, _ := serve(t, req)

	assert.False(t, s.reached)
	assert.Equal(t, dns.RcodeFormatError, mw.Rcode())
	assert.Len(t, mw.Msg().Question, 2)

	req = new(dns.Msg)
	req.Id = 7

	mw, s, _ = serve(t, req)

	assert.False(t, s.reached)
	assert.Equal(t, dns.RcodeFormatError, mw.Rcode())
	assert.Equal(t, uint16(7), mw.Msg().Id)
}

func Test_QuestionType(t *testing.T) {
	req := new(dns.Msg)
	req.SetQuestion("example.com.", dns.TypeMX)

	mw, s, _ := serve(t, req)

	assert.False(t, s.reached)
	assert.Equal(t, dns.RcodeNotImplemented, mw.Rcode())
}

func Test_QuestionName(t *testing.T) {
	req := new(dns.Msg)
	req.SetQuestion("tuta_nota.com.", dns.TypeA)

	mw, s, _ := serve(t, req)

	assert.False(t, s.reached)
	assert.Equal(t, dns.RcodeNameError, mw.Rcode())
}
