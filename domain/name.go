// Package domain holds the validated query model shared by every stage of
// the proxy: canonical names, supported record types and questions.
package domain

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

const (
	maxNameLen  = 253
	maxLabelLen = 63
	minTLDLen   = 2
)

// underscores and other non-hostname runes are rejected below, not by the
// profile. Hyphens in positions 3 and 4 are allowed ("r1---sn-x.example").
var profile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
	idna.CheckHyphens(false),
)

// Name is a lowercase, punycode-encoded domain name without a trailing dot.
// Values are only produced by Parse.
type Name string

// ValidationError reports why an input is not an acceptable domain name.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid domain name %q: %s", e.Input, e.Reason)
}

// Parse normalizes s and validates the result. "example.com." and
// "Example.COM" both yield "example.com"; unicode input is converted to its
// punycode form.
func Parse(s string) (Name, error) {
	input := s

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")

	if s == "" {
		return "", &ValidationError{Input: input, Reason: "empty name"}
	}

	ascii, err := profile.ToASCII(s)
	if err != nil {
		return "", &ValidationError{Input: input, Reason: err.Error()}
	}

	ascii = strings.ToLower(ascii)

	if len(ascii) > maxNameLen {
		return "", &ValidationError{Input: input, Reason: fmt.Sprintf("longer than %d characters", maxNameLen)}
	}

	labels := strings.Split(ascii, ".")
	for _, label := range labels {
		if reason := checkLabel(label); reason != "" {
			return "", &ValidationError{Input: input, Reason: reason}
		}
	}

	if tld := labels[len(labels)-1]; len(tld) < minTLDLen {
		return "", &ValidationError{Input: input, Reason: fmt.Sprintf("top-level domain %q is too short", tld)}
	}

	return Name(ascii), nil
}

func checkLabel(label string) string {
	switch {
	case label == "":
		return "empty label"
	case len(label) > maxLabelLen:
		return fmt.Sprintf("label %q longer than %d characters", label, maxLabelLen)
	case label[0] == '-' || label[len(label)-1] == '-':
		return fmt.Sprintf("label %q starts or ends with a hyphen", label)
	}

	for i := 0; i < len(label); i++ {
		c := label[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			continue
		}
		return fmt.Sprintf("invalid character %q", c)
	}

	return ""
}

// String returns the canonical form.
func (n Name) String() string { return string(n) }

// FQDN returns the name with a trailing dot, as carried on the wire.
func (n Name) FQDN() string { return string(n) + "." }

// Unicode returns the display form of a punycode name. Names that cannot be
// decoded are returned as is.
func (n Name) Unicode() string {
	u, err := idna.Display.ToUnicode(string(n))
	if err != nil {
		return string(n)
	}
	return u
}
