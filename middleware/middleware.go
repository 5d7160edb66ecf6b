// Package middleware runs each query through an ordered list of handlers.
package middleware

import (
	"context"
	"errors"
	"sync"

	"github.com/chris9740/swiftdns/config"
	"github.com/semihalev/zlog/v2"
)

// Handler interface
type Handler interface {
	Name() string
	ServeDNS(context.Context, *Chain)
}

type middleware struct {
	mu sync.RWMutex

	handlers []handler
	built    []Handler
	setup    bool
}

type handler struct {
	name string
	new  func(*config.Config) Handler
}

var m middleware

// Register a middleware. Handlers run in registration order.
func Register(name string, new func(*config.Config) Handler) {
	zlog.Debug("Register middleware", "name", name)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers = append(m.handlers, handler{name: name, new: new})
}

// Setup builds the registered handlers.
func Setup(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setup {
		return errors.New("setup already done")
	}

	for _, h := range m.handlers {
		m.built = append(m.built, h.new(cfg))
	}

	m.setup = true

	return nil
}

// Handlers return the built handlers.
func Handlers() []Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.built
}

// List return names of handlers
func List() (list []string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, h := range m.handlers {
		list = append(list, h.name)
	}

	return list
}

// Get return a handler by name
func Get(name string) Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i, h := range m.handlers {
		if h.name == name {
			if len(m.built) <= i {
				return nil
			}
			return m.built[i]
		}
	}

	return nil
}
