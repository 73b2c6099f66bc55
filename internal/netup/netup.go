// Package netup brings the network up in station or access point mode.
package netup

import (
	"context"
	"net"
	"time"

	"github.com/muurk/wifiportal/internal/fault"
	"github.com/muurk/wifiportal/internal/logging"
	"github.com/muurk/wifiportal/internal/radio"
	"go.uber.org/zap"
)

// Default timing used by the device.
const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
)

// Bringup configures the radio for one boot.
type Bringup struct {
	Radio          radio.Radio
	ConnectTimeout time.Duration
	PollInterval   time.Duration
	Address        net.IP
	Netmask        net.IPMask
}

// Station joins ssid and waits until the link is up. It checks the link,
// then sleeps PollInterval, until ConnectTimeout has elapsed since the
// join started. Exceeding the deadline returns a ConnectTimeout fault.
// Radio status errors are logged and treated as "not connected yet".
func (b *Bringup) Station(ctx context.Context, ssid, pass string) error {
	timeout := b.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	interval := b.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	start := time.Now()
	deadline := start.Add(timeout)

	if err := b.Radio.JoinStation(ctx, ssid, pass); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		up, err := b.Radio.Connected(ctx)
		if err != nil {
			logging.Warn("Link status check failed", zap.Error(err))
		}
		if up {
			logging.Info("Station connected",
				zap.String("ssid", ssid),
				zap.Duration("elapsed", time.Since(start)),
			)
			return nil
		}
		if !time.Now().Before(deadline) {
			return fault.NewConnectTimeoutError(ssid, timeout)
		}

		logging.Debug("Waiting for station link", zap.String("ssid", ssid))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// AccessPoint configures the fixed address and broadcasts ssid. An empty
// pass gives an open network.
func (b *Bringup) AccessPoint(ctx context.Context, ssid, pass string) error {
	return b.Radio.StartAccessPoint(ctx, radio.AccessPoint{
		SSID:    ssid,
		Pass:    pass,
		Address: b.Address,
		Netmask: b.Netmask,
	})
}
