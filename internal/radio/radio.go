// Package radio abstracts the WiFi radio.
//
// The portal only needs four things from a radio: start joining a network,
// report whether the join finished, bring up an access point and release the
// hardware. Simulated implements them in memory; NetworkManager drives a
// Linux host through nmcli.
package radio

import (
	"context"
	"net"
)

// AccessPoint describes a hotspot to broadcast.
type AccessPoint struct {
	SSID    string
	Pass    string // empty means open
	Address net.IP // AP address, also the gateway
	Netmask net.IPMask
}

// Radio is the WiFi hardware seen by the portal.
type Radio interface {
	// JoinStation starts joining ssid. It returns once the request is
	// issued; Connected reports completion.
	JoinStation(ctx context.Context, ssid, pass string) error
	// Connected reports whether the station link is up.
	Connected(ctx context.Context) (bool, error)
	// StartAccessPoint configures the address and broadcasts the SSID.
	StartAccessPoint(ctx context.Context, ap AccessPoint) error
	// Close releases the radio.
	Close() error
}
