// Package mock provides a reply writer for handler tests.
package mock

import (
	"net"

	"github.com/miekg/dns"
)

// Writer type
type Writer struct {
	msg *dns.Msg

	proto string

	remoteAddr net.Addr
	remoteip   net.IP

	err error
}

// NewWriter return writer
func NewWriter(proto, addr string) *Writer {
	w := &Writer{proto: proto}

	switch proto {
	case "tcp":
		a, _ := net.ResolveTCPAddr("tcp", addr)
		w.remoteAddr, w.remoteip = a, a.IP
	default:
		a, _ := net.ResolveUDPAddr("udp", addr)
		w.remoteAddr, w.remoteip = a, a.IP
	}

	return w
}

// Fail makes every later write return err.
func (w *Writer) Fail(err error) { w.err = err }

// Rcode return message response code
func (w *Writer) Rcode() int {
	if w.msg == nil {
		return dns.RcodeServerFailure
	}

	return w.msg.Rcode
}

// Msg return current dns message
func (w *Writer) Msg() *dns.Msg {
	return w.msg
}

// WriteMsg func
func (w *Writer) WriteMsg(msg *dns.Msg) error {
	if w.err != nil {
		return w.err
	}

	w.msg = msg
	return nil
}

// Written func
func (w *Writer) Written() bool {
	return w.msg != nil
}

// RemoteIP func
func (w *Writer) RemoteIP() net.IP { return w.remoteip }

// Proto func
func (w *Writer) Proto() string { return w.proto }

// RemoteAddr func
func (w *Writer) RemoteAddr() net.Addr { return w.remoteAddr }
