package blocklist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chris9740/swiftdns/domain"
	"github.com/gobwas/glob"
	"github.com/semihalev/zlog/v2"
)

const globstar = "**."

// Rule is a single pattern line of a rule file.
type Rule struct {
	Pattern string
	Source  string
	Line    int

	matchers []glob.Glob
}

// NewRule compiles pattern. "*" matches any run of characters, dots
// included, and a leading "**." also matches the bare parent domain.
// The pattern is lowercased and loses a trailing dot, so "Ads.Example.COM."
// matches the normalized name "ads.example.com"; matching is otherwise
// byte for byte.
func NewRule(pattern, source string, line int) (*Rule, error) {
	p := strings.ToLower(strings.TrimSpace(pattern))
	p = strings.TrimSuffix(p, ".")

	if p == "" {
		return nil, fmt.Errorf("empty pattern")
	}

	exprs := []string{p}
	if base, ok := strings.CutPrefix(p, globstar); ok && base != "" {
		exprs = []string{base, "*." + base}
	}

	r := &Rule{Pattern: pattern, Source: source, Line: line}

	for _, expr := range exprs {
		g, err := glob.Compile(quote(expr))
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
		}
		r.matchers = append(r.matchers, g)
	}

	return r, nil
}

// quote escapes every glob metacharacter except "*".
func quote(expr string) string {
	parts := strings.Split(expr, "*")
	for i, part := range parts {
		parts[i] = glob.QuoteMeta(part)
	}
	return strings.Join(parts, "*")
}

// Match reports whether name matches the rule.
func (r *Rule) Match(name domain.Name) bool {
	for _, g := range r.matchers {
		if g.Match(string(name)) {
			return true
		}
	}
	return false
}

// Source is an ordered rule set read from one file.
type Source struct {
	ID    string
	Rules []*Rule
}

// NewSource reads rules from r, one pattern per line. Blank lines and lines
// starting with "#" are skipped; patterns that fail to compile are logged
// and skipped.
func NewSource(id string, r io.Reader) (*Source, error) {
	s := &Source{ID: id}

	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		rule, err := NewRule(text, id, line)
		if err != nil {
			zlog.Warn("Rule skipped", "source", id, "line", line, "error", err.Error())
			continue
		}

		s.Rules = append(s.Rules, rule)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}

	return s, nil
}

// LoadSource reads a rule file.
func LoadSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return NewSource(path, f)
}

// Find returns the first rule matching name.
func (s *Source) Find(name domain.Name) (*Rule, bool) {
	if s == nil {
		return nil, false
	}

	for _, r := range s.Rules {
		if r.Match(name) {
			return r, true
		}
	}

	return nil, false
}
