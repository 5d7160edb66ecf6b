package accesslist

import (
	"context"
	"net"

	"github.com/chris9740/swiftdns/config"
	"github.com/chris9740/swiftdns/middleware"
	"github.com/semihalev/zlog/v2"
	"github.com/yl2chen/cidranger"
)

// AccessList type
type AccessList struct {
	ranger cidranger.Ranger
}

// New return accesslist
func New(cfg *config.Config) *AccessList {
	a := new(AccessList)
	a.ranger = cidranger.NewPCTrieRanger()

	for _, cidr := range cfg.AccessList {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			zlog.Error("Access list parse cidr failed", "cidr", cidr, "error", err.Error())
			continue
		}

		_ = a.ranger.Insert(cidranger.NewBasicRangerEntry(*ipnet))
	}

	return a
}

// Name return middleware name
func (a *AccessList) Name() string { return name }

// ServeDNS drops queries from clients outside the list.
func (a *AccessList) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	allowed, _ := a.ranger.Contains(ch.Writer.RemoteIP())

	if !allowed {
		zlog.Debug("Client not in access list", "client", ch.Writer.RemoteIP().String())
		// no reply to client
		ch.Cancel()
		return
	}

	ch.Next(ctx)
}

const name = "accesslist"
