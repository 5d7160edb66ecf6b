package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/chris9740/swiftdns/api"
	"github.com/chris9740/swiftdns/blocklist"
	"github.com/chris9740/swiftdns/cache"
	"github.com/chris9740/swiftdns/config"
	"github.com/chris9740/swiftdns/middleware"
	"github.com/chris9740/swiftdns/middleware/accesslist"
	"github.com/chris9740/swiftdns/middleware/accesslog"
	mwblocklist "github.com/chris9740/swiftdns/middleware/blocklist"
	mwcache "github.com/chris9740/swiftdns/middleware/cache"
	"github.com/chris9740/swiftdns/middleware/forwarder"
	"github.com/chris9740/swiftdns/middleware/metrics"
	"github.com/chris9740/swiftdns/middleware/question"
	"github.com/chris9740/swiftdns/middleware/ratelimit"
	"github.com/chris9740/swiftdns/middleware/recovery"
	"github.com/chris9740/swiftdns/server"
	"github.com/chris9740/swiftdns/transport"
	"github.com/chris9740/swiftdns/upstream"
	"github.com/jonboulle/clockwork"
	"github.com/semihalev/zlog/v2"
	"github.com/spf13/cobra"
)

var (
	address string

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the DNS proxy",
		Args:  cobra.NoArgs,
		RunE:  runStart,
	}
)

func init() {
	startCmd.Flags().StringVarP(&address, "address", "a", "", "listen address, overrides the config file")

	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	if address != "" {
		cfg.Address = address

		if err := cfg.Validate(); err != nil {
			zlog.Error("Listen address is invalid", "address", address, "error", err.Error())
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zlog.Info("Starting swiftdns...", "version", version, "mode", string(cfg.Mode))

	client, err := newClient(ctx, cfg, cfg.Tor.Enabled)
	if err != nil {
		return err
	}
	defer client.Close()

	rules, err := blocklist.LoadDir(cfg.RulesDir, cfg.Whitelist)
	if err != nil {
		zlog.Error("Rules loading failed", "dir", cfg.RulesDir, "error", err.Error())
		return err
	}

	go func() {
		if err := rules.Watch(ctx); err != nil {
			zlog.Warn("Rules directory is not watched, changes need a restart", "dir", cfg.RulesDir, "error", err.Error())
		}
	}()

	answers := cache.New(cfg.CacheSize, clockwork.NewRealClock())
	resolver := upstream.New(client, cfg.Endpoint())

	registerHandlers(rules, answers, resolver)

	if err := middleware.Setup(cfg); err != nil {
		return err
	}

	zlog.Debug("Middlewares loaded", "list", middleware.List())

	defer closeHandlers(middleware.Handlers())

	api.New(cfg.API, rules, answers).Run(ctx)

	srv := server.New(cfg.Address, cfg.Workers, middleware.Handlers())
	if err := srv.ListenAndServe(ctx); err != nil {
		zlog.Error("DNS listener failed", "addr", cfg.Address, "error", err.Error())
		return err
	}

	zlog.Info("Stopping swiftdns...")

	return nil
}

// closeHandlers releases the resources held by handlers, such as the
// access log file.
func closeHandlers(handlers []middleware.Handler) {
	for _, h := range handlers {
		c, ok := h.(io.Closer)
		if !ok {
			continue
		}

		if err := c.Close(); err != nil {
			zlog.Error("Middleware close failed", "name", h.Name(), "error", err.Error())
		}
	}
}

// registerHandlers registers the query chain in the order it runs.
func registerHandlers(rules *blocklist.BlockList, answers *cache.Cache, resolver *upstream.Resolver) {
	middleware.Register("recovery", func(*config.Config) middleware.Handler { return recovery.New() })
	middleware.Register("metrics", func(*config.Config) middleware.Handler { return metrics.New() })
	middleware.Register("accesslog", func(cfg *config.Config) middleware.Handler { return accesslog.New(cfg) })
	middleware.Register("accesslist", func(cfg *config.Config) middleware.Handler { return accesslist.New(cfg) })
	middleware.Register("ratelimit", func(cfg *config.Config) middleware.Handler { return ratelimit.New(cfg) })
	middleware.Register("question", func(*config.Config) middleware.Handler { return question.New() })
	middleware.Register("blocklist", func(*config.Config) middleware.Handler { return mwblocklist.New(rules) })
	middleware.Register("cache", func(*config.Config) middleware.Handler { return mwcache.New(answers) })
	middleware.Register("forwarder", func(cfg *config.Config) middleware.Handler {
		return forwarder.New(resolver, cfg.Timeout.Duration)
	})
}

// newClient builds the upstream HTTP client. A proxied client is checked
// before it is returned.
func newClient(ctx context.Context, cfg *config.Config, tor bool) (*transport.Client, error) {
	opts := transport.Options{
		HTTP3:       cfg.Upstream.HTTP3,
		CheckURL:    cfg.Tor.CheckURL,
		CheckString: cfg.Tor.CheckString,
		Timeout:     cfg.Timeout.Duration,
	}
	if tor {
		opts.Proxy = cfg.Tor.Address
		opts.HTTP3 = false
	}

	client, err := transport.New(opts)
	if err != nil {
		return nil, err
	}

	if client.Proxied() {
		zlog.Info("Checking Tor connection...", "proxy", opts.Proxy)

		if err := client.Validate(ctx); err != nil {
			zlog.Error("Tor connection check failed", "proxy", opts.Proxy, "error", err.Error())
			client.Close()
			return nil, err
		}
	}

	return client, nil
}
