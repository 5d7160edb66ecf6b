package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chris9740/swiftdns/blocklist"
	"github.com/chris9740/swiftdns/cache"
	"github.com/chris9740/swiftdns/doh"
	"github.com/chris9740/swiftdns/domain"
	"github.com/jonboulle/clockwork"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T) (*API, *cache.Cache) {
	t.Helper()

	src, err := blocklist.NewSource("ads.txt", strings.NewReader("# ads\n**.ads.example.com\n"))
	require.NoError(t, err)

	c := cache.New(0, clockwork.NewFakeClock())

	for _, name := range []domain.Name{"example.com", "example.org"} {
		c.Set(domain.Question{Name: name, Type: domain.TypeA}, &doh.Msg{Answer: []doh.RR{
			{Name: string(name), Type: dns.TypeA, TTL: 60, Data: "192.0.2.1"},
		}})
	}

	return New("", blocklist.New(nil, []*blocklist.Source{src}), c), c
}

func do(t *testing.T, h http.Handler, method, path string, v any) int {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))

	if v != nil {
		require.NoError(t, json.NewDecoder(w.Body).Decode(v))
	}

	return w.Code
}

func Test_Health(t *testing.T) {
	a, _ := newAPI(t)

	var resp map[string]string
	assert.Equal(t, http.StatusOK, do(t, a.Handler(), http.MethodGet, "/health", &resp))
	assert.Equal(t, "ok", resp["status"])
}

func Test_Metrics(t *testing.T) {
	a, _ := newAPI(t)

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func Test_Filter(t *testing.T) {
	a, _ := newAPI(t)
	h := a.Handler()

	var resp filterResponse
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/filter/Tracker.Ads.Example.com", &resp))
	assert.True(t, resp.Blocked)
	assert.Equal(t, "tracker.ads.example.com", resp.Name)
	assert.Equal(t, "**.ads.example.com", resp.Pattern)
	assert.Equal(t, "ads.txt", resp.Source)
	assert.Equal(t, 2, resp.Line)

	resp = filterResponse{}
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/filter/example.com", &resp))
	assert.False(t, resp.Blocked)
	assert.Empty(t, resp.Message)

	var errResp errorResponse
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/filter/-bad-", &errResp))
	assert.NotEmpty(t, errResp.Error)
}

func Test_Cache(t *testing.T) {
	a, c := newAPI(t)
	h := a.Handler()

	var resp cacheResponse
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/cache", &resp))
	assert.Equal(t, 2, resp.Entries)

	var ok successResponse
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/v1/cache/example.com/a", &ok))
	assert.True(t, ok.Success)
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodDelete, "/api/v1/cache/example.com/MX", nil))
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodDelete, "/api/v1/cache/-x-/A", nil))

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/v1/cache", &ok))
	assert.Equal(t, 0, c.Len())

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/api/v1/cache", nil))
}

func Test_RunDisabled(t *testing.T) {
	a, _ := newAPI(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	a.Run(ctx)
}
