package settings

import (
	"fmt"
	"net"
	"time"
)

// CurrentVersion is the settings file format version.
const CurrentVersion = 1

// Radio backends.
const (
	BackendSimulated      = "simulated"
	BackendNetworkManager = "networkmanager"
)

// Restart strategies.
const (
	RestartInProcess = "inprocess"
	RestartExec      = "exec"
)

// Settings is the whole settings file.
type Settings struct {
	Version     int                 `yaml:"version"`
	HTTP        HTTPSettings        `yaml:"http"`
	DNS         DNSSettings         `yaml:"dns"`
	AccessPoint AccessPointSettings `yaml:"access_point"`
	Station     StationSettings     `yaml:"station"`
	Storage     StorageSettings     `yaml:"storage"`
	Pages       PageSettings        `yaml:"pages"`
	Radio       RadioSettings       `yaml:"radio"`
	Logging     LoggingSettings     `yaml:"logging"`
	Discovery   DiscoverySettings   `yaml:"discovery"`
	Restart     string              `yaml:"restart"` // inprocess or exec
}

// HTTPSettings configures the portal listener.
type HTTPSettings struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DNSSettings configures the captive DNS responder.
type DNSSettings struct {
	Addr   string `yaml:"addr"`
	TTL    uint32 `yaml:"ttl"`    // seconds
	Domain string `yaml:"domain"` // "*" answers every name
}

// AccessPointSettings configures hotspot and settings mode.
type AccessPointSettings struct {
	Address     string `yaml:"address"`      // AP address, also the gateway and DNS answer
	Netmask     string `yaml:"netmask"`      // dotted quad
	DefaultSSID string `yaml:"default_ssid"` // broadcast in settings mode
	DefaultPass string `yaml:"default_pass"` // empty means open
}

// StationSettings configures the join wait.
type StationSettings struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
}

// StorageSettings locates the record.
type StorageSettings struct {
	Path   string `yaml:"path,omitempty"` // empty means <config dir>/eeprom.bin
	Offset int64  `yaml:"offset"`
	Size   int64  `yaml:"size"`
}

// PageSettings configures static page serving.
type PageSettings struct {
	Dir        string `yaml:"dir,omitempty"` // empty means the built-in pages
	BufferSize int    `yaml:"buffer_size"`
}

// RadioSettings selects the WiFi backend.
type RadioSettings struct {
	Backend    string `yaml:"backend"`
	Interface  string `yaml:"interface,omitempty"`  // e.g. wlan0
	Connection string `yaml:"connection,omitempty"` // NetworkManager profile name
}

// LoggingSettings mirrors logging.Options.
type LoggingSettings struct {
	Level       string `yaml:"level,omitempty"`
	ConsolePort string `yaml:"console_port,omitempty"`
	ConsoleBaud int    `yaml:"console_baud,omitempty"`
	File        string `yaml:"file,omitempty"`
	FileMaxMB   int    `yaml:"file_max_mb,omitempty"`
}

// DiscoverySettings configures mDNS advertising in station mode.
type DiscoverySettings struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance,omitempty"` // empty means the hostname
	Service  string `yaml:"service"`
	Domain   string `yaml:"domain"`
}

// Default returns settings matching the device firmware constants.
func Default() *Settings {
	return &Settings{
		Version: CurrentVersion,
		HTTP: HTTPSettings{
			Addr:            ":80",
			ShutdownTimeout: 5 * time.Second,
		},
		DNS: DNSSettings{
			Addr:   ":53",
			TTL:    60,
			Domain: "*",
		},
		AccessPoint: AccessPointSettings{
			Address:     "192.168.1.1",
			Netmask:     "255.255.255.0",
			DefaultSSID: "Wemos",
		},
		Station: StationSettings{
			ConnectTimeout: 30 * time.Second,
			PollInterval:   500 * time.Millisecond,
		},
		Storage: StorageSettings{
			Offset: 0,
			Size:   128,
		},
		Pages: PageSettings{
			BufferSize: 4096,
		},
		Radio: RadioSettings{
			Backend:    BackendSimulated,
			Interface:  "wlan0",
			Connection: "wifiportal",
		},
		Discovery: DiscoverySettings{
			Enabled: true,
			Service: "_http._tcp",
			Domain:  "local.",
		},
		Restart: RestartInProcess,
	}
}

// Validate checks the settings and returns every problem found.
func (s *Settings) Validate() []error {
	var errs []error

	if s.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported settings version: %d (expected %d)", s.Version, CurrentVersion))
	}
	if _, _, err := net.SplitHostPort(s.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("http.addr %q: %w", s.HTTP.Addr, err))
	}
	if _, _, err := net.SplitHostPort(s.DNS.Addr); err != nil {
		errs = append(errs, fmt.Errorf("dns.addr %q: %w", s.DNS.Addr, err))
	}
	if ip := net.ParseIP(s.AccessPoint.Address); ip == nil || ip.To4() == nil {
		errs = append(errs, fmt.Errorf("access_point.address %q is not an IPv4 address", s.AccessPoint.Address))
	}
	if mask := net.ParseIP(s.AccessPoint.Netmask); mask == nil || mask.To4() == nil {
		errs = append(errs, fmt.Errorf("access_point.netmask %q is not a dotted quad", s.AccessPoint.Netmask))
	} else if ones, bits := net.IPMask(mask.To4()).Size(); ones == 0 && bits == 0 {
		errs = append(errs, fmt.Errorf("access_point.netmask %q is not a contiguous mask", s.AccessPoint.Netmask))
	}
	if s.AccessPoint.DefaultSSID == "" {
		errs = append(errs, fmt.Errorf("access_point.default_ssid cannot be empty"))
	}
	if s.Station.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("station.connect_timeout must be positive"))
	}
	if s.Station.PollInterval <= 0 || (s.Station.ConnectTimeout > 0 && s.Station.PollInterval > s.Station.ConnectTimeout) {
		errs = append(errs, fmt.Errorf("station.poll_interval must be positive and no longer than connect_timeout"))
	}
	if s.Storage.Offset < 0 || s.Storage.Size <= 0 || s.Storage.Offset >= s.Storage.Size {
		errs = append(errs, fmt.Errorf("storage offset %d does not fit in size %d", s.Storage.Offset, s.Storage.Size))
	}
	if s.Pages.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("pages.buffer_size must be positive"))
	}
	switch s.Radio.Backend {
	case BackendSimulated, BackendNetworkManager:
	default:
		errs = append(errs, fmt.Errorf("radio.backend %q is not one of %s, %s", s.Radio.Backend, BackendSimulated, BackendNetworkManager))
	}
	switch s.Restart {
	case RestartInProcess, RestartExec:
	default:
		errs = append(errs, fmt.Errorf("restart %q is not one of %s, %s", s.Restart, RestartInProcess, RestartExec))
	}

	return errs
}

// Netmask returns the access point mask.
func (s *Settings) Netmask() net.IPMask {
	ip := net.ParseIP(s.AccessPoint.Netmask).To4()
	if ip == nil {
		return net.CIDRMask(24, 32)
	}
	return net.IPMask(ip)
}
