// Package question rejects queries the proxy cannot answer and records the
// canonical question for the handlers after it.
package question

import (
	"context"

	"github.com/chris9740/swiftdns/dnsutil"
	"github.com/chris9740/swiftdns/domain"
	"github.com/chris9740/swiftdns/middleware"
	"github.com/miekg/dns"
	"github.com/semihalev/zlog/v2"
)

// Question type
type Question struct{}

// New return question validator.
func New() *Question {
	return &Question{}
}

// (*Question).Name name return middleware name.
func (q *Question) Name() string { return name }

// (*Question).ServeDNS implements the Handle interface.
func (q *Question) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	req := ch.Request

	if len(req.Question) != 1 {
		zlog.Debug("Query rejected", "questions", len(req.Question), "rcode", "FORMERR")
		ch.CancelWithRcode(dns.RcodeFormatError)
		return
	}

	rq := req.Question[0]

	qtype, err := domain.TypeFromCode(rq.Qtype)
	if err != nil {
		zlog.Debug("Query rejected", "query", dnsutil.FormatQuestion(rq), "rcode", "NOTIMP")
		ch.CancelWithRcode(dns.RcodeNotImplemented)
		return
	}

	qname, err := domain.Parse(rq.Name)
	if err != nil {
		zlog.Debug("Query rejected", "query", dnsutil.FormatQuestion(rq), "error", err.Error())
		ch.CancelWithRcode(dns.RcodeNameError)
		return
	}

	ch.Question = domain.Question{Name: qname, Type: qtype}

	ch.Next(ctx)
}

const name = "question"
