package accesslog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chris9740/swiftdns/config"
	"github.com/chris9740/swiftdns/middleware"
	"github.com/chris9740/swiftdns/mock"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refuser struct{}

func (r *refuser) Name() string { return "refuser" }

func (r *refuser) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	ch.CancelWithRcode(dns.RcodeRefused)
}

func Test_accesslog(t *testing.T) {
	cfg := config.Default()
	cfg.AccessLog = filepath.Join(t.TempDir(), "access.log")

	a := New(cfg)
	defer a.Close()

	assert.Equal(t, "accesslog", a.Name())

	req := new(dns.Msg)
	req.SetQuestion("Example.com.", dns.TypeA)

	ch := middleware.NewChain([]middleware.Handler{a, &refuser{}})
	ch.Reset(mock.NewWriter("udp", "10.0.0.1:0"), req)
	ch.Next(context.Background())

	// no reply, no line
	ch = middleware.NewChain([]middleware.Handler{a})
	ch.Reset(mock.NewWriter("udp", "10.0.0.2:0"), req)
	ch.Next(context.Background())

	data, err := os.ReadFile(cfg.AccessLog)
	require.NoError(t, err)

	line := string(data)
	assert.Contains(t, line, "10.0.0.1 - [")
	assert.Contains(t, line, "\"example.com. IN A\" udp -cd REFUSED")
	assert.NotContains(t, line, "10.0.0.2")
}

func Test_accesslogDisabled(t *testing.T) {
	a := New(config.Default())
	assert.NoError(t, a.Close())

	cfg := config.Default()
	cfg.AccessLog = filepath.Join(t.TempDir(), "missing", "access.log")

	a = New(cfg)
	assert.Nil(t, a.logFile)

	req := new(dns.Msg)
	req.SetQuestion("example.com.", dns.TypeA)

	ch := middleware.NewChain([]middleware.Handler{a, &refuser{}})
	mw := mock.NewWriter("udp", "10.0.0.1:0")
	ch.Reset(mw, req)
	ch.Next(context.Background())

	assert.True(t, mw.Written())
}
