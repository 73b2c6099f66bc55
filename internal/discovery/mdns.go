package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type portals advertise
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for portal discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the default HTTP port of a portal
	DefaultPort = 80

	// MarkerKey is the TXT key that tells portals apart from other
	// _http._tcp services
	MarkerKey = "wifiportal"
)

// osHostname is swapped out in tests
var osHostname = os.Hostname

// Scanner handles mDNS portal discovery
type Scanner struct {
	// Timeout is the maximum time to wait for portals
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan discovers all portals on the local network until the timeout or
// ctx ends.
func (s *Scanner) Scan(ctx context.Context) ([]*Portal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu      sync.Mutex
		portals = make([]*Portal, 0)
		seen    = make(map[string]bool)
	)
	go func() {
		for entry := range entries {
			portal := parseServiceEntry(entry)
			if portal == nil {
				continue
			}
			mu.Lock()
			if key := portal.BaseURL(); !seen[key] {
				seen[key] = true
				portals = append(portals, portal)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]*Portal(nil), portals...), nil
}

// ScanForPortals is a convenience function to scan with a custom timeout
func ScanForPortals(timeout time.Duration) ([]*Portal, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan(context.Background())
}

// parseServiceEntry converts a zeroconf service entry to a Portal.
// Returns nil if the entry is not a portal.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Portal {
	metadata := parseText(entry.Text)
	if _, ok := metadata[MarkerKey]; !ok {
		return nil
	}

	// Prefer IPv4
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Portal{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Mode:         metadata["mode"],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// parseText splits "key=value" TXT strings. A bare key maps to "".
func parseText(text []string) map[string]string {
	metadata := make(map[string]string, len(text))
	for _, txt := range text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}
	return metadata
}

// Advertisement is a running mDNS registration.
type Advertisement struct {
	server *zeroconf.Server
}

// AdvertiseConfig describes the registration.
type AdvertiseConfig struct {
	Instance string // empty means the host name
	Service  string // empty means ServiceType
	Domain   string // empty means ServiceDomain
	Port     int
	Mode     string
	Version  string
	Ifaces   []net.Interface // nil means all
}

// Advertise registers the portal so Scan can find it.
func Advertise(cfg AdvertiseConfig) (*Advertisement, error) {
	instance := cfg.Instance
	if instance == "" {
		instance = defaultInstance()
	}
	service := cfg.Service
	if service == "" {
		service = ServiceType
	}
	domain := cfg.Domain
	if domain == "" {
		domain = ServiceDomain
	}

	server, err := zeroconf.Register(instance, service, domain, cfg.Port, advertText(cfg), cfg.Ifaces)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the registration.
func (a *Advertisement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}

func advertText(cfg AdvertiseConfig) []string {
	text := []string{MarkerKey + "=1", "path=/"}
	if cfg.Mode != "" {
		text = append(text, "mode="+cfg.Mode)
	}
	if cfg.Version != "" {
		text = append(text, "version="+cfg.Version)
	}
	return text
}

func defaultInstance() string {
	host, err := osHostname()
	if err != nil || host == "" {
		return "wifiportal"
	}
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return host
}
