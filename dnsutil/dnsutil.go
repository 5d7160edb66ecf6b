// Package dnsutil converts between wire-format DNS messages and the
// resolver's answer records.
package dnsutil

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/chris9740/swiftdns/doh"
	"github.com/chris9740/swiftdns/domain"
	"github.com/miekg/dns"
)

const headerSize = 12

// ErrMalformedAddress is returned when an upstream address record does not
// hold a literal of its own family.
var ErrMalformedAddress = errors.New("malformed address record")

// DecodeError wraps a datagram that could not be parsed as a DNS message.
// Such datagrams get no reply.
type DecodeError struct {
	Size int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %d byte message: %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var errShortMessage = errors.New("shorter than header")

// Decode parses a raw query datagram.
func Decode(b []byte) (*dns.Msg, error) {
	if len(b) < headerSize {
		return nil, &DecodeError{Size: len(b), Err: errShortMessage}
	}

	m := new(dns.Msg)
	if err := m.Unpack(b); err != nil {
		return nil, &DecodeError{Size: len(b), Err: err}
	}

	return m, nil
}

// NewReply builds the response to req. The id, opcode, RD, TC and CD bits
// and the question section are echoed; QR, AA, RA and AD are always set.
// Answers that are not A or AAAA records are skipped.
func NewReply(req *dns.Msg, rcode int, answers []doh.RR) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.Id = req.Id
	m.Response = true
	m.Opcode = req.Opcode
	m.Authoritative = true
	m.Truncated = req.Truncated
	m.RecursionDesired = req.RecursionDesired
	m.RecursionAvailable = true
	m.AuthenticatedData = true
	m.CheckingDisabled = req.CheckingDisabled
	m.Rcode = rcode
	m.Compress = true
	m.Question = append([]dns.Question(nil), req.Question...)

	for _, a := range answers {
		rr, ok, err := AnswerRR(a)
		if err != nil {
			return nil, err
		}
		if ok {
			m.Answer = append(m.Answer, rr)
		}
	}

	return m, nil
}

// Encode builds and packs the response to req.
func Encode(req *dns.Msg, rcode int, answers []doh.RR) ([]byte, error) {
	m, err := NewReply(req, rcode, answers)
	if err != nil {
		return nil, err
	}

	return m.Pack()
}

// AnswerRR converts an upstream record into a wire record. It reports false
// for record types that have no wire representation here.
func AnswerRR(a doh.RR) (dns.RR, bool, error) {
	hdr := dns.RR_Header{
		Name:   dns.Fqdn(a.Name),
		Rrtype: a.Type,
		Class:  dns.ClassINET,
		Ttl:    a.TTL,
	}

	switch domain.Type(a.Type) {
	case domain.TypeA:
		addr, err := netip.ParseAddr(a.Data)
		if err != nil || !addr.Is4() {
			return nil, false, fmt.Errorf("%w: A %q", ErrMalformedAddress, a.Data)
		}
		return &dns.A{Hdr: hdr, A: net.IP(addr.AsSlice())}, true, nil

	case domain.TypeAAAA:
		addr, err := netip.ParseAddr(a.Data)
		if err != nil || !addr.Is6() || addr.Zone() != "" {
			return nil, false, fmt.Errorf("%w: AAAA %q", ErrMalformedAddress, a.Data)
		}
		return &dns.AAAA{Hdr: hdr, AAAA: net.IP(addr.AsSlice())}, true, nil
	}

	return nil, false, nil
}

// FormatQuestion returns a log friendly representation of q.
func FormatQuestion(q dns.Question) string {
	return strings.ToLower(q.Name) + " " + dns.ClassToString[q.Qclass] + " " + dns.TypeToString[q.Qtype]
}
