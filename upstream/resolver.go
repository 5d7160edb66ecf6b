// Package upstream resolves questions against a DNS-over-HTTPS server
// speaking the application/dns-json format.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/chris9740/swiftdns/doh"
	"github.com/chris9740/swiftdns/domain"
)

var (
	// ErrBadRequest is returned when the server rejects the request.
	ErrBadRequest = errors.New("upstream rejected the request")
	// ErrNetwork is returned when the request could not be completed.
	ErrNetwork = errors.New("upstream unreachable")
	// ErrDecode is returned when the response is not a valid JSON message.
	ErrDecode = errors.New("upstream response malformed")
)

const (
	contentType = "application/dns-json"
	bodyLimit   = 64 << 10
)

// Doer sends HTTP requests.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Resolver type
type Resolver struct {
	client   Doer
	endpoint string
}

// New returns a resolver querying endpoint, for example
// "https://1.1.1.1/dns-query".
func New(client Doer, endpoint string) *Resolver {
	return &Resolver{client: client, endpoint: endpoint}
}

// Endpoint returns the URL queried by r.
func (r *Resolver) Endpoint() string { return r.endpoint }

// Resolve looks up the records of type t for name. Errors wrap
// ErrBadRequest, ErrNetwork or ErrDecode; network errors also wrap their
// cause, so a context deadline remains detectable.
func (r *Resolver) Resolve(ctx context.Context, name domain.Name, t domain.Type) (*doh.Msg, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: endpoint: %w", ErrBadRequest, err)
	}

	q := u.Query()
	q.Set("name", name.String())
	q.Set("type", t.String())
	q.Set("do", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	req.Header.Set("Accept", contentType)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s %s", ErrBadRequest, name, t)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %s", ErrDecode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, bodyLimit))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	return decode(body)
}

func decode(body []byte) (*doh.Msg, error) {
	var probe struct {
		Status *int
	}

	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if probe.Status == nil {
		return nil, fmt.Errorf("%w: missing Status", ErrDecode)
	}

	msg := new(doh.Msg)
	if err := json.Unmarshal(body, msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return msg, nil
}
