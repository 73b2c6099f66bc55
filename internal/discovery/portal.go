package discovery

import (
	"fmt"
	"time"
)

// Portal is a WiFi portal found on the local network
type Portal struct {
	// Instance is the advertised service instance name, usually the
	// host name of the device
	Instance string

	// Hostname is the mDNS hostname (e.g., "sensor-3.local.")
	Hostname string

	// IP is the address the portal answered from
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Mode is the boot mode the portal is running in
	Mode string

	// Metadata contains all TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the portal was seen
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the portal
func (p *Portal) String() string {
	return fmt.Sprintf("WiFi portal %s (%s) at %s:%d", p.Instance, p.Hostname, p.IP, p.Port)
}

// BaseURL returns the HTTP base URL for the portal
func (p *Portal) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", p.IP, p.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (p *Portal) GetMetadata(key string) string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata[key]
}
