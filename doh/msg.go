// Package doh describes the JSON message format served by DNS-over-HTTPS
// resolvers for application/dns-json requests.
package doh

import "github.com/chris9740/swiftdns/domain"

// Question struct
type Question struct {
	Name string `json:"name"`
	Type uint16 `json:"type"`
}

// RR struct
type RR struct {
	Name string `json:"name"`
	Type uint16 `json:"type"`
	TTL  uint32 `json:"TTL"`
	Data string `json:"data"`
}

// Msg is a resolution result. An absent Answer array is the same as an
// empty one.
type Msg struct {
	Status    int
	TC        bool
	RD        bool
	RA        bool
	AD        bool
	CD        bool
	Question  []Question
	Answer    []RR `json:",omitempty"`
	Authority []RR `json:",omitempty"`
}

// Clone returns a deep copy of m.
func (m *Msg) Clone() *Msg {
	if m == nil {
		return nil
	}

	c := *m
	c.Question = append([]Question(nil), m.Question...)
	c.Answer = append([]RR(nil), m.Answer...)
	c.Authority = append([]RR(nil), m.Authority...)

	return &c
}

// Addresses returns the A and AAAA records of the answer section in order.
func (m *Msg) Addresses() []RR {
	var rrs []RR
	for _, rr := range m.Answer {
		if isAddress(rr.Type) {
			rrs = append(rrs, rr)
		}
	}
	return rrs
}

// MinTTL returns the smallest TTL among address answers, and false when
// there are none.
func (m *Msg) MinTTL() (uint32, bool) {
	var (
		ttl   uint32
		found bool
	)

	for _, rr := range m.Answer {
		if !isAddress(rr.Type) {
			continue
		}
		if !found || rr.TTL < ttl {
			ttl, found = rr.TTL, true
		}
	}

	return ttl, found
}

func isAddress(t uint16) bool {
	return t == domain.TypeA.Code() || t == domain.TypeAAAA.Code()
}
