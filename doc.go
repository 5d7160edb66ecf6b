/*
Package main implements swiftdns - a local DNS proxy that filters queries
against glob rule files and resolves the rest through DNS-over-HTTPS.

swiftdns listens for plain DNS queries over UDP and:

  - Answers only single-question A and AAAA queries
  - Refuses names matched by a blacklist rule unless the whitelist allows them
  - Serves repeated questions from a TTL-bounded answer cache
  - Resolves everything else through Cloudflare's JSON DoH endpoint
  - Optionally routes upstream traffic through a Tor SOCKS proxy
  - Exposes Prometheus metrics and a small management API

Architecture:

Every query runs through a chain of middleware handlers, in order:

 1. Recovery - Panic recovery, answered with SERVFAIL
 2. Metrics - Prometheus query counters
 3. AccessLog - Common Log Format query log
 4. AccessList - CIDR based client access control
 5. RateLimit - Per client query rate limiting
 6. Question - Question count, type and name validation
 7. BlockList - Glob rule filtering
 8. Cache - Answer cache
 9. Forwarder - DNS-over-HTTPS resolution

Resolver modes:

  - standard  1.1.1.1
  - safe      1.1.1.2 (blocks malware)
  - clean     1.1.1.3 (blocks malware and adult content)

Usage:

	swiftdns [command]

Available Commands:

	start       Start the DNS proxy
	resolve     Resolve a domain name and print the records
	version     Print version information

Flags:

	-c, --config string     Location of config file (default "/etc/swiftdns/config.toml")
	    --loglevel string   Override the configured log level

Example:

	# Start the proxy on a custom address
	swiftdns start --address 127.0.0.1:5353

	# Look up an IPv6 address through Tor
	swiftdns resolve example.com --type AAAA --tor
*/
package main // import "github.com/chris9740/swiftdns"
