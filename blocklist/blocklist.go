// Package blocklist decides whether a domain name may be resolved, using
// glob rules read from a directory of text files.
package blocklist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chris9740/swiftdns/domain"
	"github.com/semihalev/zlog/v2"
)

// DefaultWhitelist is the rule file treated as the whitelist.
const DefaultWhitelist = "whitelist.txt"

// Entry is a positive filter decision.
type Entry struct {
	Name domain.Name
	Rule *Rule
}

// Message renders the refusal shown to users and written to the log.
func (e *Entry) Message() string {
	return fmt.Sprintf("the domain `%s` has been blacklisted (pattern `%s`, %s:%d), refusing to resolve.",
		e.Name, e.Rule.Pattern, e.Rule.Source, e.Rule.Line)
}

// BlockList holds the whitelist and the ordered blacklist sources.
type BlockList struct {
	mu sync.RWMutex

	dir           string
	whitelistFile string

	whitelist *Source
	blacklist []*Source
}

// New returns a BlockList over already loaded sources.
func New(whitelist *Source, blacklist []*Source) *BlockList {
	return &BlockList{whitelist: whitelist, blacklist: blacklist}
}

// LoadDir reads every *.txt file in dir. The file named whitelistFile is the
// whitelist; the others are blacklist sources consulted in file name order.
// A missing directory or unreadable file leaves the affected rules empty.
func LoadDir(dir, whitelistFile string) (*BlockList, error) {
	if whitelistFile == "" {
		whitelistFile = DefaultWhitelist
	}

	b := &BlockList{dir: dir, whitelistFile: whitelistFile}

	if err := b.Reload(); err != nil {
		return nil, err
	}

	return b, nil
}

// Reload re-reads the rule directory and swaps the rule sets.
func (b *BlockList) Reload() error {
	if b.dir == "" {
		return errors.New("blocklist has no rule directory")
	}

	whitelist, blacklist := readDir(b.dir, b.whitelistFile)

	b.mu.Lock()
	b.whitelist = whitelist
	b.blacklist = blacklist
	b.mu.Unlock()

	zlog.Info("Rules loaded", "dir", b.dir, "whitelist", whitelist.Len(), "blacklist", b.Len()-whitelist.Len())

	return nil
}

func readDir(dir, whitelistFile string) (*Source, []*Source) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			zlog.Warn("Rules directory not found, no rules loaded", "dir", dir)
		} else {
			zlog.Error("Rules directory read failed", "dir", dir, "error", err.Error())
		}
		return nil, nil
	}

	var (
		whitelist *Source
		blacklist []*Source
	)

	for _, e := range entries {
		if e.IsDir() || !isRuleFile(e.Name()) {
			continue
		}

		path := filepath.Join(dir, e.Name())

		src, err := LoadSource(path)
		if err != nil {
			zlog.Error("Rule file read failed", "path", path, "error", err.Error())
			continue
		}

		if e.Name() == whitelistFile {
			whitelist = src
			continue
		}

		blacklist = append(blacklist, src)
	}

	return whitelist, blacklist
}

func isRuleFile(name string) bool {
	return strings.HasSuffix(name, ".txt")
}

// Find reports whether name is blocked. A whitelist match always wins;
// otherwise the first matching blacklist rule is returned.
func (b *BlockList) Find(name domain.Name) (*Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.whitelist.Find(name); ok {
		return nil, false
	}

	for _, src := range b.blacklist {
		if r, ok := src.Find(name); ok {
			return &Entry{Name: name, Rule: r}, true
		}
	}

	return nil, false
}

// Len returns the number of loaded rules, whitelist included.
func (b *BlockList) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := b.whitelist.Len()
	for _, src := range b.blacklist {
		n += src.Len()
	}
	return n
}

// Len returns the number of rules in s.
func (s *Source) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rules)
}
