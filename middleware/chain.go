package middleware

import (
	"context"

	"github.com/chris9740/swiftdns/dnsutil"
	"github.com/chris9740/swiftdns/doh"
	"github.com/chris9740/swiftdns/domain"
	"github.com/miekg/dns"
	"github.com/semihalev/zlog/v2"
)

// Chain carries one query through the handlers. Handlers further down read
// Question once it has been validated and Result once it has been resolved.
type Chain struct {
	Writer  ResponseWriter
	Request *dns.Msg

	Question domain.Question
	Result   *doh.Msg

	rw responseWriter

	handlers []Handler

	head  int
	count int
}

// NewChain return new fresh chain.
func NewChain(handlers []Handler) *Chain {
	ch := &Chain{
		handlers: handlers,
		count:    len(handlers),
	}
	ch.Writer = &ch.rw

	return ch
}

// (*Chain).Next next call next dns handler in the chain.
func (ch *Chain) Next(ctx context.Context) {
	if ch.count == 0 {
		return
	}

	handler := ch.handlers[ch.head]
	ch.head++
	ch.count--

	handler.ServeDNS(ctx, ch)
}

// (*Chain).Cancel cancel next calls. The client gets no reply.
func (ch *Chain) Cancel() {
	ch.count = 0
}

// (*Chain).Reply writes the response to the request with the given rcode
// and answers.
func (ch *Chain) Reply(rcode int, answers []doh.RR) error {
	m, err := dnsutil.NewReply(ch.Request, rcode, answers)
	if err != nil {
		return err
	}

	return ch.Writer.WriteMsg(m)
}

// (*Chain).CancelWithRcode cancel next calls and reply with rcode.
func (ch *Chain) CancelWithRcode(rcode int) {
	if err := ch.Reply(rcode, nil); err != nil {
		zlog.Error("Reply write failed", "rcode", dns.RcodeToString[rcode], "error", err.Error())
	}

	ch.count = 0
}

// (*Chain).Reset reset the chain variables.
func (ch *Chain) Reset(w Writer, r *dns.Msg) {
	ch.rw.reset(w)
	ch.Writer = &ch.rw
	ch.Request = r
	ch.Question = domain.Question{}
	ch.Result = nil
	ch.count = len(ch.handlers)
	ch.head = 0
}
