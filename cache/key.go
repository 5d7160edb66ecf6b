package cache

import (
	"github.com/cespare/xxhash/v2"
	"github.com/chris9740/swiftdns/domain"
)

// Key returns the hash of a question.
// Format: [qtype:2][qname:variable]
func Key(q domain.Question) uint64 {
	var kb [2 + 253]byte

	buf := kb[:0]
	buf = append(buf, byte(q.Type>>8), byte(q.Type))
	buf = append(buf, string(q.Name)...)

	return xxhash.Sum64(buf)
}
