package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Type is a supported record type. Its value is the protocol code.
type Type uint16

// Supported record types.
const (
	TypeA    Type = 1
	TypeAAAA Type = 28
)

// ErrUnknownType is returned for record types outside the supported set.
var ErrUnknownType = errors.New("unsupported record type")

var types = [...]struct {
	typ  Type
	text string
}{
	{TypeA, "A"},
	{TypeAAAA, "AAAA"},
}

// ParseType converts a case-insensitive type mnemonic.
func ParseType(text string) (Type, error) {
	for _, t := range types {
		if strings.EqualFold(t.text, text) {
			return t.typ, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownType, text)
}

// TypeFromCode converts a wire type code.
func TypeFromCode(code uint16) (Type, error) {
	for _, t := range types {
		if uint16(t.typ) == code {
			return t.typ, nil
		}
	}

	return 0, fmt.Errorf("%w: %d", ErrUnknownType, code)
}

// Code returns the protocol type code.
func (t Type) Code() uint16 { return uint16(t) }

func (t Type) String() string {
	for _, e := range types {
		if e.typ == t {
			return e.text
		}
	}
	return fmt.Sprintf("TYPE%d", uint16(t))
}

// Question is the canonical form of a single-question query.
type Question struct {
	Name Name
	Type Type
}

func (q Question) String() string {
	return q.Name.String() + " " + q.Type.String()
}
