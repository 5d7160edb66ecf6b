package accesslog

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chris9740/swiftdns/config"
	"github.com/chris9740/swiftdns/dnsutil"
	"github.com/chris9740/swiftdns/middleware"
	"github.com/miekg/dns"
	"github.com/semihalev/zlog/v2"
)

// AccessLog type
type AccessLog struct {
	mu      sync.Mutex
	logFile *os.File
}

// New returns a new AccessLog, disabled when no file is configured.
func New(cfg *config.Config) *AccessLog {
	a := &AccessLog{}

	if cfg.AccessLog != "" {
		f, err := os.OpenFile(cfg.AccessLog, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			zlog.Error("Access log file open failed", "path", cfg.AccessLog, "error", strings.TrimSpace(err.Error()))
		} else {
			a.logFile = f
		}
	}

	return a
}

// Name return middleware name
func (a *AccessLog) Name() string { return name }

// ServeDNS writes one Common Log Format line per answered query.
func (a *AccessLog) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	ch.Next(ctx)

	w := ch.Writer

	if a.logFile == nil || !w.Written() {
		return
	}

	resp := w.Msg()

	question := "\"-\""
	if len(resp.Question) > 0 {
		question = "\"" + dnsutil.FormatQuestion(resp.Question[0]) + "\""
	}

	cd := "-cd"
	if resp.CheckingDisabled {
		cd = "+cd"
	}

	record := []string{
		w.RemoteIP().String() + " -",
		"[" + time.Now().Format("02/Jan/2006:15:04:05 -0700") + "]",
		question,
		w.Proto(),
		cd,
		dns.RcodeToString[resp.Rcode],
		strconv.Itoa(resp.Len()),
	}

	a.mu.Lock()
	_, err := a.logFile.WriteString(strings.Join(record, " ") + "\n")
	a.mu.Unlock()

	if err != nil {
		zlog.Error("Access log write failed", "error", strings.TrimSpace(err.Error()))
	}
}

// Close closes the log file.
func (a *AccessLog) Close() error {
	if a.logFile == nil {
		return nil
	}
	return a.logFile.Close()
}

const name = "accesslog"
