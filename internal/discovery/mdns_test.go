package discovery

import (
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func portalEntry(host string, port int, v4, v6 []net.IP, text ...string) *zeroconf.ServiceEntry {
	entry := zeroconf.NewServiceEntry("sensor-3", ServiceType, ServiceDomain)
	entry.HostName = host
	entry.Port = port
	entry.AddrIPv4 = v4
	entry.AddrIPv6 = v6
	entry.Text = text
	return entry
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
		wantMode string
	}{
		{
			name:     "portal with IPv4",
			entry:    portalEntry("sensor-3.local.", 80, []net.IP{net.ParseIP("192.168.4.16")}, nil, "wifiportal=1", "mode=STATION"),
			wantIP:   "192.168.4.16",
			wantPort: 80,
			wantMode: "STATION",
		},
		{
			name:     "custom port",
			entry:    portalEntry("sensor-3.local.", 8080, []net.IP{net.ParseIP("10.0.0.5")}, nil, "wifiportal=1"),
			wantIP:   "10.0.0.5",
			wantPort: 8080,
		},
		{
			name:     "no port specified (should default to 80)",
			entry:    portalEntry("sensor-3.local.", 0, []net.IP{net.ParseIP("172.16.0.1")}, nil, "wifiportal"),
			wantIP:   "172.16.0.1",
			wantPort: 80,
		},
		{
			name:    "other http service (no marker)",
			entry:   portalEntry("printer.local.", 80, []net.IP{net.ParseIP("192.168.1.9")}, nil, "path=/"),
			wantNil: true,
		},
		{
			name:    "no IP address",
			entry:   portalEntry("sensor-3.local.", 80, nil, nil, "wifiportal=1"),
			wantNil: true,
		},
		{
			name:     "IPv6 only",
			entry:    portalEntry("sensor-3.local.", 80, nil, []net.IP{net.ParseIP("fe80::1")}, "wifiportal=1"),
			wantIP:   "fe80::1",
			wantPort: 80,
		},
		{
			name:     "both IPv4 and IPv6 (should prefer IPv4)",
			entry:    portalEntry("sensor-3.local.", 80, []net.IP{net.ParseIP("192.168.1.50")}, []net.IP{net.ParseIP("fe80::2")}, "wifiportal=1"),
			wantIP:   "192.168.1.50",
			wantPort: 80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			portal := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if portal != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", portal)
				}
				return
			}
			if portal == nil {
				t.Fatal("parseServiceEntry() = nil, want portal")
			}

			if portal.IP != tt.wantIP {
				t.Errorf("portal.IP = %v, want %v", portal.IP, tt.wantIP)
			}
			if portal.Port != tt.wantPort {
				t.Errorf("portal.Port = %v, want %v", portal.Port, tt.wantPort)
			}
			if portal.Mode != tt.wantMode {
				t.Errorf("portal.Mode = %v, want %v", portal.Mode, tt.wantMode)
			}
			if portal.Instance != "sensor-3" || portal.Hostname != tt.entry.HostName {
				t.Errorf("portal names = %q %q", portal.Instance, portal.Hostname)
			}
			if time.Since(portal.DiscoveredAt) > time.Second {
				t.Errorf("portal.DiscoveredAt is not recent: %v", portal.DiscoveredAt)
			}
		})
	}
}

func TestParseText(t *testing.T) {
	got := parseText([]string{"path=/", "flag", "version=1.0", "eq=a=b"})
	want := map[string]string{"path": "/", "flag": "", "version": "1.0", "eq": "a=b"}

	if len(got) != len(want) {
		t.Errorf("parseText() has %d entries, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("parseText()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestAdvertTextRoundTrip(t *testing.T) {
	text := advertText(AdvertiseConfig{Mode: "STATION", Version: "v1.2.0"})
	portal := parseServiceEntry(portalEntry("h.local.", 80, []net.IP{net.ParseIP("192.168.1.7")}, nil, text...))
	if portal == nil {
		t.Fatal("advertised TXT records should be recognized by the scanner")
	}
	if portal.Mode != "STATION" || portal.GetMetadata("version") != "v1.2.0" {
		t.Errorf("portal = %+v", portal)
	}
}

func TestDefaultInstance(t *testing.T) {
	orig := osHostname
	defer func() { osHostname = orig }()

	osHostname = func() (string, error) { return "sensor-3.lan", nil }
	if got := defaultInstance(); got != "sensor-3" {
		t.Errorf("defaultInstance() = %q, want sensor-3", got)
	}

	osHostname = func() (string, error) { return "", errors.New("no hostname") }
	if got := defaultInstance(); got != "wifiportal" {
		t.Errorf("defaultInstance() fallback = %q", got)
	}
}

func TestPortal(t *testing.T) {
	p := &Portal{Instance: "sensor-3", Hostname: "sensor-3.local.", IP: "10.0.0.5", Port: 8080}

	if got := p.String(); !strings.Contains(got, "sensor-3") || !strings.Contains(got, "10.0.0.5:8080") {
		t.Errorf("String() = %q", got)
	}
	if got := p.BaseURL(); got != "http://10.0.0.5:8080" {
		t.Errorf("BaseURL() = %q", got)
	}
	if got := p.GetMetadata("anything"); got != "" {
		t.Errorf("GetMetadata() with nil map = %q", got)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestAdvertisementShutdownNil(t *testing.T) {
	var a *Advertisement
	a.Shutdown() // must not panic
}
