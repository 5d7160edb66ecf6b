package recovery

import (
	"context"
	"runtime/debug"

	"github.com/chris9740/swiftdns/dnsutil"
	"github.com/chris9740/swiftdns/middleware"
	"github.com/miekg/dns"
	"github.com/semihalev/zlog/v2"
)

// Recovery type
type Recovery struct{}

// New return recovery.
func New() *Recovery {
	return &Recovery{}
}

// (*Recovery).Name name return middleware name.
func (r *Recovery) Name() string { return name }

// (*Recovery).ServeDNS answers SERVFAIL when a later handler panics.
func (r *Recovery) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	defer func() {
		if rec := recover(); rec != nil {
			query := "-"
			if len(ch.Request.Question) > 0 {
				query = dnsutil.FormatQuestion(ch.Request.Question[0])
			}

			zlog.Error("Recovered in ServeDNS", "query", query, "recover", rec, "stack", string(debug.Stack()))

			if !ch.Writer.Written() {
				ch.CancelWithRcode(dns.RcodeServerFailure)
			}
			ch.Cancel()
		}
	}()

	ch.Next(ctx)
}

const name = "recovery"
