package boot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifiportal/internal/captivedns"
	"github.com/muurk/wifiportal/internal/discovery"
	"github.com/muurk/wifiportal/internal/logging"
	"github.com/muurk/wifiportal/internal/netup"
	"github.com/muurk/wifiportal/internal/portal"
	"github.com/muurk/wifiportal/internal/record"
	"github.com/muurk/wifiportal/internal/store"
)

// ErrRestart is returned by Run when the stored record changed and the
// device must boot again to apply it.
var ErrRestart = errors.New("restart requested")

// Store is the persisted record.
type Store interface {
	Load() (record.Record, store.Status)
	Save(rec record.Record) error
}

// DNSConfig configures the captive DNS responder.
type DNSConfig struct {
	Addr   string
	TTL    uint32
	Domain string
}

// Endpoints are the addresses the servers bound for one boot. DNS is nil in
// station mode.
type Endpoints struct {
	HTTP net.Addr
	DNS  net.Addr
}

// Booter runs one boot: load the record, bring the network up, then serve
// the portal until a handler asks for a restart.
type Booter struct {
	Store   Store
	Network *netup.Bringup
	Pages   *portal.Pages
	HTTP    portal.Config
	DNS     DNSConfig

	// DefaultSSID and DefaultPass are broadcast in settings mode.
	DefaultSSID string
	DefaultPass string

	// Advertise, when set, registers the portal over mDNS in station mode.
	Advertise *discovery.AdvertiseConfig

	// Ready is called once the servers are listening.
	Ready func(Endpoints)
}

// Run performs one boot. It returns ErrRestart when the record was
// rewritten and nil when ctx is cancelled. Any other error means the
// network or the listeners failed.
func (b *Booter) Run(ctx context.Context) error {
	rec, status := b.Store.Load()
	logging.LogBoot(status.String(), rec.Mode.String(), rec.SSID)

	plan := Select(rec, status, b.DefaultSSID, b.DefaultPass)
	logging.Info("Boot plan",
		zap.Stringer("action", plan.Action),
		zap.String("ssid", plan.SSID),
	)

	var dnsServer *captivedns.Server
	if plan.AccessPoint() {
		if err := b.Network.AccessPoint(ctx, plan.SSID, plan.Pass); err != nil {
			return fmt.Errorf("start access point: %w", err)
		}

		responder := captivedns.NewResponder(b.Network.Address)
		if b.DNS.TTL > 0 {
			responder.TTL = b.DNS.TTL
		}
		if b.DNS.Domain != "" {
			responder.Domain = b.DNS.Domain
		}

		var err error
		dnsServer, err = captivedns.Listen(b.DNS.Addr, responder)
		if err != nil {
			return err
		}
	} else if err := b.Network.Station(ctx, plan.SSID, plan.Pass); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return b.fallback(rec, err)
	}

	handler := portal.New(&rec, b.Store, b.Pages)
	httpServer, err := portal.Listen(&b.HTTP, handler)
	if err != nil {
		if dnsServer != nil {
			_ = dnsServer.Shutdown(ctx)
		}
		return err
	}

	httpServer.Start()
	endpoints := Endpoints{HTTP: httpServer.Addr()}
	if dnsServer != nil {
		dnsServer.Start()
		endpoints.DNS = dnsServer.Addr()
	}

	if !plan.AccessPoint() && b.Advertise != nil {
		cfg := *b.Advertise
		cfg.Mode = rec.Mode.String()
		if port := tcpPort(endpoints.HTTP); port > 0 {
			cfg.Port = port
		}
		ad, err := discovery.Advertise(cfg)
		if err != nil {
			logging.Warn("mDNS advertising unavailable", zap.Error(err))
		} else {
			defer ad.Shutdown()
		}
	}

	if b.Ready != nil {
		b.Ready(endpoints)
	}

	return b.loop(ctx, handler, httpServer, dnsServer)
}

// loop services at most one DNS query or HTTP request at a time. Handlers
// run only here, so the record needs no lock. It returns an error if the
// portal stops accepting on its own.
func (b *Booter) loop(ctx context.Context, handler *portal.Portal, httpServer *portal.Server, dnsServer *captivedns.Server) error {
	var queries <-chan *captivedns.Query
	if dnsServer != nil {
		queries = dnsServer.Queries()
	}
	exchanges := httpServer.Exchanges()

	for {
		select {
		case <-ctx.Done():
			logging.Info("Shutdown signal received, stopping portal...")
			b.shutdown(httpServer, dnsServer)
			return nil

		case <-httpServer.Failed():
			b.shutdown(httpServer, dnsServer)
			return fmt.Errorf("portal stopped: %w", httpServer.Err())

		case q := <-queries:
			dnsServer.Serve(q)

		case ex := <-exchanges:
			httpServer.Serve(ex)
			if handler.RestartRequested() {
				b.shutdown(httpServer, dnsServer)
				return ErrRestart
			}
		}
	}
}

// fallback rewrites the record to settings mode after a failed join.
func (b *Booter) fallback(rec record.Record, cause error) error {
	logging.Warn("Station bring-up failed, falling back to settings",
		zap.String("ssid", rec.SSID),
		zap.Error(cause),
	)

	from := rec.Mode
	rec.Mode = record.ModeSettings
	if err := b.Store.Save(rec); err != nil {
		return fmt.Errorf("persist settings fallback: %w", err)
	}

	logging.LogModeChange(from.String(), rec.Mode.String(), cause.Error())
	return ErrRestart
}

func (b *Booter) shutdown(httpServer *portal.Server, dnsServer *captivedns.Server) {
	// The boot context may already be cancelled.
	timeout := b.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logging.Warn("Portal shutdown failed", zap.Error(err))
	}
	if dnsServer != nil {
		if err := dnsServer.Shutdown(ctx); err != nil {
			logging.Warn("DNS shutdown failed", zap.Error(err))
		}
	}
}

func tcpPort(addr net.Addr) int {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}
