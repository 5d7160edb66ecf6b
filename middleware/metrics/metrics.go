// Package metrics counts answered queries and provides the collectors
// shared by the other handlers.
package metrics

import (
	"context"
	"errors"

	"github.com/chris9740/swiftdns/middleware"
	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics type
type Metrics struct {
	queries *prometheus.CounterVec
}

// New return new metrics
func New() *Metrics {
	return &Metrics{
		queries: NewCounterVec("queries_total", "How many DNS queries answered, by type and rcode.", "qtype", "rcode"),
	}
}

// Name return middleware name
func (m *Metrics) Name() string { return name }

// ServeDNS implements the Handle interface.
func (m *Metrics) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	ch.Next(ctx)

	w := ch.Writer
	if !w.Written() {
		return
	}

	qtype := "-"
	if q := w.Msg().Question; len(q) == 1 {
		qtype = dns.TypeToString[q[0].Qtype]
	}

	m.queries.WithLabelValues(qtype, dns.RcodeToString[w.Rcode()]).Inc()
}

// NewCounterVec returns a registered counter in the swiftdns namespace. A
// counter registered earlier under the same name is reused.
func NewCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)

	return register(c).(*prometheus.CounterVec)
}

// NewHistogram returns a registered histogram in the swiftdns namespace.
func NewHistogram(name, help string) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   prometheus.DefBuckets,
	})

	return register(h).(prometheus.Histogram)
}

func register(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
	}
	return c
}

const (
	name      = "metrics"
	namespace = "swiftdns"
)
