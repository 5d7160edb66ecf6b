package forwarder

import (
	"context"
	"errors"
	"time"

	"github.com/chris9740/swiftdns/doh"
	"github.com/chris9740/swiftdns/domain"
	"github.com/chris9740/swiftdns/middleware"
	"github.com/chris9740/swiftdns/middleware/metrics"
	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/semihalev/zlog/v2"
	"golang.org/x/sync/singleflight"
)

// Resolver looks up a question upstream.
type Resolver interface {
	Resolve(context.Context, domain.Name, domain.Type) (*doh.Msg, error)
}

// Forwarder type
type Forwarder struct {
	resolver Resolver
	timeout  time.Duration

	group singleflight.Group

	duration prometheus.Histogram
	failures *prometheus.CounterVec
}

// New return forwarder. Each lookup is abandoned after timeout.
func New(r Resolver, timeout time.Duration) *Forwarder {
	return &Forwarder{
		resolver: r,
		timeout:  timeout,
		duration: metrics.NewHistogram("upstream_duration_seconds", "Upstream lookup latency."),
		failures: metrics.NewCounterVec("upstream_failures_total", "Upstream lookups that produced no answer.", "reason"),
	}
}

// Name return middleware name
func (f *Forwarder) Name() string { return name }

// ServeDNS resolves the question upstream. Lookups that exceed the deadline
// are answered with SERVFAIL; other failures get no reply.
func (f *Forwarder) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	q := ch.Question

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	msg, err := f.resolve(ctx, q)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			f.failures.WithLabelValues("timeout").Inc()
			zlog.Warn("Upstream lookup timed out", "query", q.String(), "timeout", f.timeout.String())
			ch.CancelWithRcode(dns.RcodeServerFailure)
			return
		}

		f.failures.WithLabelValues("error").Inc()
		zlog.Error("Upstream lookup failed", "query", q.String(), "error", err.Error())
		ch.Cancel()
		return
	}

	rcode := dns.RcodeSuccess
	if len(msg.Answer) == 0 {
		rcode = dns.RcodeNameError
	}

	if err := ch.Reply(rcode, msg.Answer); err != nil {
		f.failures.WithLabelValues("encode").Inc()
		zlog.Error("Upstream answer could not be encoded", "query", q.String(), "error", err.Error())
		ch.Cancel()
		return
	}

	ch.Result = msg
	ch.Cancel()
}

// resolve shares one upstream lookup among identical concurrent questions.
func (f *Forwarder) resolve(ctx context.Context, q domain.Question) (*doh.Msg, error) {
	c := f.group.DoChan(q.String(), func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()

		start := time.Now()
		msg, err := f.resolver.Resolve(ctx, q.Name, q.Type)
		f.duration.Observe(time.Since(start).Seconds())

		return msg, err
	})

	select {
	case res := <-c:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*doh.Msg).Clone(), nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

const name = "forwarder"
