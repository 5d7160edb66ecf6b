package mock

import (
	"errors"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func Test_Writer(t *testing.T) {
	mw := NewWriter("udp", "127.0.0.1:0")
	assert.False(t, mw.Written())
	assert.Equal(t, dns.RcodeServerFailure, mw.Rcode())

	m := new(dns.Msg)
	m.SetQuestion("example.com.", dns.TypeA)

	assert.NoError(t, mw.WriteMsg(m))
	assert.True(t, mw.Written())
	assert.Equal(t, dns.RcodeSuccess, mw.Rcode())
	assert.NotNil(t, mw.Msg())
	assert.Equal(t, "127.0.0.1:0", mw.RemoteAddr().String())
	assert.Equal(t, "127.0.0.1", mw.RemoteIP().String())
	assert.Equal(t, "udp", mw.Proto())

	mw = NewWriter("tcp", "10.0.0.1:53")
	assert.Equal(t, "tcp", mw.Proto())
	assert.Equal(t, "10.0.0.1", mw.RemoteIP().String())

	mw.Fail(errors.New("closed"))
	assert.Error(t, mw.WriteMsg(m))
	assert.False(t, mw.Written())
}
