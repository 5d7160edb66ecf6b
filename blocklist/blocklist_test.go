package blocklist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chris9740/swiftdns/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func source(t *testing.T, id, rules string) *Source {
	t.Helper()

	src, err := NewSource(id, strings.NewReader(rules))
	require.NoError(t, err)

	return src
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func Test_BlockListWhitelistOverride(t *testing.T) {
	b := New(
		source(t, "whitelist.txt", "good.example.com\n"),
		[]*Source{source(t, "ads.txt", "**.example.com\n")},
	)

	_, blocked := b.Find("good.example.com")
	assert.False(t, blocked)

	e, blocked := b.Find("bad.example.com")
	require.True(t, blocked)
	assert.Equal(t, "ads.txt", e.Rule.Source)
	assert.Equal(t, 1, e.Rule.Line)
}

func Test_BlockListFirstMatch(t *testing.T) {
	b := New(nil, []*Source{
		source(t, "a.txt", "other.net\n*.example.com\n"),
		source(t, "b.txt", "ads.example.com\n"),
	})

	e, blocked := b.Find("ads.example.com")
	require.True(t, blocked)
	assert.Equal(t, "a.txt", e.Rule.Source)
	assert.Equal(t, 2, e.Rule.Line)

	assert.Equal(t,
		"the domain `ads.example.com` has been blacklisted (pattern `*.example.com`, a.txt:2), refusing to resolve.",
		e.Message())

	_, blocked = b.Find("example.org")
	assert.False(t, blocked)

	assert.Equal(t, 3, b.Len())
}

func Test_LoadDir(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "whitelist.txt", "keep.tracker.net\n")
	writeFile(t, dir, "b-ads.txt", "**.tracker.net\n")
	writeFile(t, dir, "a-malware.txt", "# malware\nevil.com\n**.tracker.net\n")
	writeFile(t, dir, "notes.md", "example.org\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755))

	b, err := LoadDir(dir, "")
	require.NoError(t, err)

	e, blocked := b.Find(domain.Name("x.tracker.net"))
	require.True(t, blocked)
	assert.Equal(t, filepath.Join(dir, "a-malware.txt"), e.Rule.Source)
	assert.Equal(t, 3, e.Rule.Line)

	_, blocked = b.Find(domain.Name("keep.tracker.net"))
	assert.False(t, blocked)

	_, blocked = b.Find(domain.Name("example.org"))
	assert.False(t, blocked)

	writeFile(t, dir, "c-extra.txt", "example.org\n")
	require.NoError(t, b.Reload())

	_, blocked = b.Find(domain.Name("example.org"))
	assert.True(t, blocked)
}

func Test_LoadDirMissing(t *testing.T) {
	b, err := LoadDir(filepath.Join(t.TempDir(), "absent"), "whitelist.txt")
	require.NoError(t, err)

	assert.Equal(t, 0, b.Len())

	_, blocked := b.Find(domain.Name("example.com"))
	assert.False(t, blocked)
}

func Test_ReloadWithoutDir(t *testing.T) {
	b := New(nil, nil)
	assert.Error(t, b.Reload())
}
