package blocklist

import (
	"context"

	"github.com/chris9740/swiftdns/blocklist"
	"github.com/chris9740/swiftdns/domain"
	"github.com/chris9740/swiftdns/middleware"
	"github.com/chris9740/swiftdns/middleware/metrics"
	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/semihalev/zlog/v2"
)

// Finder decides whether a name is blocked.
type Finder interface {
	Find(domain.Name) (*blocklist.Entry, bool)
}

// BlockList type
type BlockList struct {
	finder  Finder
	blocked *prometheus.CounterVec
}

// New returns a new BlockList
func New(f Finder) *BlockList {
	return &BlockList{
		finder:  f,
		blocked: metrics.NewCounterVec("blocked_total", "How many queries were refused by a rule file.", "source"),
	}
}

// Name return middleware name
func (b *BlockList) Name() string { return name }

// ServeDNS refuses queries for blocked names.
func (b *BlockList) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	entry, blocked := b.finder.Find(ch.Question.Name)
	if !blocked {
		ch.Next(ctx)
		return
	}

	zlog.Info(entry.Message(), "type", ch.Question.Type.String(), "client", ch.Writer.RemoteIP().String())

	b.blocked.WithLabelValues(entry.Rule.Source).Inc()

	ch.CancelWithRcode(dns.RcodeRefused)
}

const name = "blocklist"
