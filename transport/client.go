// Package transport builds the HTTP client used to reach the upstream
// resolver: direct, through a SOCKS5 proxy such as Tor, or over HTTP/3.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/semihalev/zlog/v2"
	"golang.org/x/net/proxy"
)

var (
	// ErrProxyUnreachable is returned when the proxy check request fails.
	ErrProxyUnreachable = errors.New("proxy unreachable")
	// ErrProxyCheckFailed is returned when the check page does not confirm
	// that traffic leaves through the proxy.
	ErrProxyCheckFailed = errors.New("proxy check failed")
	// ErrProxyHTTP3 is returned when a proxy and HTTP/3 are both requested.
	ErrProxyHTTP3 = errors.New("http3 cannot be used through a SOCKS proxy")
)

const (
	checkBodyLimit = 1 << 20
	dialTimeout    = 10 * time.Second
	idleTimeout    = 90 * time.Second
)

// Options type
type Options struct {
	// SOCKS5 address, empty for direct connections.
	Proxy       string
	HTTP3       bool
	CheckURL    string
	CheckString string
	// Overall limit for a single request, 0 for none.
	Timeout time.Duration
}

// Client is an HTTP client that refuses to send requests through an
// unverified proxy. It is safe for concurrent use.
type Client struct {
	client *http.Client
	close  func()

	proxied     bool
	checkURL    string
	checkString string

	mu        sync.Mutex
	validated bool
}

// New returns a client for opts.
func New(opts Options) (*Client, error) {
	if opts.Proxy != "" && opts.HTTP3 {
		return nil, ErrProxyHTTP3
	}

	switch {
	case opts.Proxy != "":
		if _, _, err := net.SplitHostPort(opts.Proxy); err != nil {
			return nil, fmt.Errorf("invalid proxy address %q: %w", opts.Proxy, err)
		}

		dialer, err := proxy.SOCKS5("tcp", opts.Proxy, nil, &net.Dialer{Timeout: dialTimeout})
		if err != nil {
			return nil, fmt.Errorf("socks5 dialer: %w", err)
		}

		cd, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, errors.New("socks5 dialer does not support contexts")
		}

		t := &http.Transport{
			DialContext:         cd.DialContext,
			ForceAttemptHTTP2:   true,
			TLSHandshakeTimeout: dialTimeout,
			IdleConnTimeout:     idleTimeout,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		}

		return newClient(t, t.CloseIdleConnections, true, opts), nil

	case opts.HTTP3:
		t := &http3.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS13},
			QUICConfig: &quic.Config{
				MaxIdleTimeout: idleTimeout,
			},
		}

		return newClient(t, func() { _ = t.Close() }, false, opts), nil
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}

	return newClient(t, t.CloseIdleConnections, false, opts), nil
}

func newClient(rt http.RoundTripper, closeFn func(), proxied bool, opts Options) *Client {
	return &Client{
		client:      &http.Client{Transport: rt, Timeout: opts.Timeout},
		close:       closeFn,
		proxied:     proxied,
		checkURL:    opts.CheckURL,
		checkString: opts.CheckString,
	}
}

// Proxied reports whether requests go through a SOCKS proxy.
func (c *Client) Proxied() bool { return c.proxied }

// Validate confirms once that the proxy works. Later calls return nil
// without network traffic. Direct clients are always valid.
func (c *Client) Validate(ctx context.Context) error {
	if !c.proxied {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.validated {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.checkURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProxyCheckFailed, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProxyUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %s", ErrProxyCheckFailed, c.checkURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, checkBodyLimit))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProxyUnreachable, err)
	}

	if !strings.Contains(string(body), c.checkString) {
		return fmt.Errorf("%w: %s did not confirm the proxy", ErrProxyCheckFailed, c.checkURL)
	}

	c.validated = true

	zlog.Info("Proxy validated", "check", c.checkURL)

	return nil
}

// Do sends req, validating the proxy first if that has not happened yet.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.Validate(req.Context()); err != nil {
		return nil, err
	}

	return c.client.Do(req)
}

// Close releases idle connections.
func (c *Client) Close() {
	if c.close != nil {
		c.close()
	}
}
