// Package api serves the HTTP management endpoints: health, metrics, filter
// lookups and cache control.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chris9740/swiftdns/blocklist"
	"github.com/chris9740/swiftdns/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/semihalev/zlog/v2"
)

// Finder decides whether a name is blocked.
type Finder interface {
	Find(domain.Name) (*blocklist.Entry, bool)
}

// Cache is the part of the answer cache the API controls.
type Cache interface {
	Len() int
	Purge()
	Remove(domain.Question)
}

// API type
type API struct {
	addr string

	filter Finder
	cache  Cache
}

// New return new api
func New(addr string, filter Finder, cache Cache) *API {
	return &API{
		addr:   addr,
		filter: filter,
		cache:  cache,
	}
}

// Handler returns the routed endpoints.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", a.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if a.filter != nil {
			r.Get("/filter/{name}", a.getFilter)
		}

		if a.cache != nil {
			r.Get("/cache", a.getCache)
			r.Delete("/cache", a.purgeCache)
			r.Delete("/cache/{name}/{type}", a.removeCache)
		}
	})

	return r
}

// Run starts the API server in the background and stops it when ctx is
// done. It does nothing when no address is configured.
func (a *API) Run(ctx context.Context) {
	if a.addr == "" {
		return
	}

	srv := &http.Server{
		Addr:              a.addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("Start API server failed", "error", err.Error())
		}
	}()

	zlog.Info("API server listening...", "addr", a.addr)

	go func() {
		<-ctx.Done()

		zlog.Info("API server stopping...", "addr", a.addr)

		apiCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(apiCtx); err != nil {
			zlog.Error("Shutdown API server failed", "error", err.Error())
		}
	}()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		zlog.Debug("API request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start).String())
	})
}
