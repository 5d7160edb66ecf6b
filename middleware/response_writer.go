package middleware

import (
	"errors"
	"net"

	"github.com/miekg/dns"
)

// Writer delivers a reply to the client.
type Writer interface {
	WriteMsg(*dns.Msg) error
	RemoteAddr() net.Addr
}

// ResponseWriter records the reply written for a query.
type ResponseWriter interface {
	Writer
	Msg() *dns.Msg
	Rcode() int
	Written() bool
	Proto() string
	RemoteIP() net.IP
}

type responseWriter struct {
	Writer
	msg      *dns.Msg
	written  bool
	rcode    int
	proto    string
	remoteip net.IP
}

var _ ResponseWriter = &responseWriter{}
var errAlreadyWritten = errors.New("msg already written")

func (w *responseWriter) reset(rw Writer) {
	w.Writer = rw
	w.msg = nil
	w.written = false
	w.rcode = dns.RcodeSuccess
	w.proto = ""
	w.remoteip = nil

	switch addr := rw.RemoteAddr().(type) {
	case *net.UDPAddr:
		w.proto = "udp"
		w.remoteip = addr.IP
	case *net.TCPAddr:
		w.proto = "tcp"
		w.remoteip = addr.IP
	}

	if p, ok := rw.(interface{ Proto() string }); ok {
		w.proto = p.Proto()
	}
}

func (w *responseWriter) Msg() *dns.Msg { return w.msg }

func (w *responseWriter) RemoteIP() net.IP { return w.remoteip }

func (w *responseWriter) Proto() string { return w.proto }

func (w *responseWriter) Rcode() int { return w.rcode }

func (w *responseWriter) Written() bool { return w.written }

func (w *responseWriter) WriteMsg(m *dns.Msg) error {
	if w.written {
		return errAlreadyWritten
	}

	w.msg = m
	w.rcode = m.Rcode
	w.written = true

	return w.Writer.WriteMsg(m)
}
