// Package config loads and validates the swiftdns configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/semihalev/zlog/v2"
)

const configver = "1.0.0"

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "/etc/swiftdns/config.toml"

// Config type
type Config struct {
	Version    string   `toml:"version"`
	Address    string   `toml:"address" validate:"required,hostport"`
	Mode       Mode     `toml:"mode" validate:"oneof=standard safe clean"`
	LogLevel   string   `toml:"loglevel" validate:"oneof=debug info warn error"`
	AccessLog  string   `toml:"accesslog"`
	API        string   `toml:"api" validate:"omitempty,hostport"`
	RulesDir   string   `toml:"rulesdir" validate:"required"`
	Whitelist  string   `toml:"whitelist" validate:"required,endswith=.txt"`
	Timeout    Duration `toml:"timeout"`
	Workers    int      `toml:"workers" validate:"min=1"`
	CacheSize  int      `toml:"cachesize" validate:"min=0"`
	RateLimit  int      `toml:"ratelimit" validate:"min=0"`
	AccessList []string `toml:"accesslist" validate:"dive,cidr"`
	Upstream   Upstream `toml:"upstream"`
	Tor        Tor      `toml:"tor"`
}

// Upstream configures the DNS-over-HTTPS resolver.
type Upstream struct {
	Endpoint string `toml:"endpoint" validate:"omitempty,url"`
	HTTP3    bool   `toml:"http3"`
}

// Tor configures the SOCKS proxy used to reach the resolver.
type Tor struct {
	Enabled     bool   `toml:"enabled"`
	Address     string `toml:"address" validate:"required,hostport"`
	CheckURL    string `toml:"checkurl" validate:"required,url"`
	CheckString string `toml:"checkstring" validate:"required"`
}

// Duration type
type Duration struct {
	time.Duration
}

// UnmarshalText for duration type
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText for duration type
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used for absent keys.
func Default() *Config {
	return &Config{
		Version:    configver,
		Address:    "127.0.0.1:53",
		Mode:       ModeStandard,
		LogLevel:   "info",
		RulesDir:   "/etc/swiftdns/rules",
		Whitelist:  "whitelist.txt",
		Timeout:    Duration{5 * time.Second},
		Workers:    64,
		CacheSize:  65536,
		AccessList: []string{"0.0.0.0/0", "::/0"},
		Tor: Tor{
			Address:     "127.0.0.1:9050",
			CheckURL:    "https://check.torproject.org",
			CheckString: "Congratulations. This browser is configured to use Tor.",
		},
	}
}

// Endpoint returns the resolver URL, honouring an explicit override.
func (c *Config) Endpoint() string {
	if c.Upstream.Endpoint != "" {
		return c.Upstream.Endpoint
	}
	return c.Mode.Endpoint()
}

var defaultConfig = `
# Config version, config and build versions can be different.
version = "%s"

# Address to listen on for DNS queries over UDP
address = "127.0.0.1:53"

# Resolver mode: "standard", "safe" (blocks malware) or "clean" (blocks malware and adult content)
mode = "standard"

# What kind of information should be logged, Log verbosity level [error,warn,info,debug]
loglevel = "info"

# The location of access log file, left blank for disabled. Common Log Format is used.
# accesslog = ""

# Address to bind to for the http API server, left blank for disabled
# api = "127.0.0.1:8053"

# Directory of rule files. Every *.txt file is a blacklist, except the whitelist file.
# One pattern per line, "*" matches anything and "**.example.com" matches example.com and its subdomains.
rulesdir = "/etc/swiftdns/rules"

# Name of the whitelist file inside rulesdir, whitelisted names are never blocked
whitelist = "whitelist.txt"

# Deadline for each upstream lookup, exceeded lookups are answered with SERVFAIL
timeout = "5s"

# Number of queries served concurrently
workers = 64

# Cache size (total answers in cache), 0 for unbounded
cachesize = 65536

# Client ip address based ratelimit per second, 0 for disabled
ratelimit = 0

# Which clients allowed to make queries
accesslist = [
"0.0.0.0/0",
"::/0"
]

[upstream]
# DNS-over-HTTPS JSON endpoint, left blank to use the resolver of the selected mode
# endpoint = "https://1.1.1.1/dns-query"

# Use HTTP/3 to reach the resolver, cannot be combined with tor
http3 = false

[tor]
# Send every upstream lookup through the Tor SOCKS proxy
enabled = false

# SOCKS5 address of the Tor daemon
address = "127.0.0.1:9050"

# The proxy is validated once at startup by fetching checkurl and looking for checkstring
checkurl = "https://check.torproject.org"
checkstring = "Congratulations. This browser is configured to use Tor."
`

// Load loads the given config file, generating a default one if it does
// not exist. The result is validated.
func Load(cfgfile string) (*Config, error) {
	if _, err := os.Stat(cfgfile); errors.Is(err, os.ErrNotExist) {
		if err := generateConfig(cfgfile); err != nil {
			return nil, err
		}
	}

	zlog.Info("Loading config file", "path", cfgfile)

	config := Default()

	if _, err := toml.DecodeFile(cfgfile, config); err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	if config.Version != configver {
		zlog.Warn("Config file is out of version, you can generate new one and check the changes.")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func generateConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not generate config: %w", err)
	}

	output, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not generate config: %w", err)
	}

	defer func() {
		err := output.Close()
		if err != nil {
			zlog.Warn("Config generation failed while file closing", "error", err.Error())
		}
	}()

	r := strings.NewReader(fmt.Sprintf(defaultConfig, configver))
	if _, err := io.Copy(output, r); err != nil {
		return fmt.Errorf("could not copy default config: %w", err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		zlog.Info("Default config file generated", "config", abs)
	}

	return nil
}
