package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	s := Default()

	if s.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", s.Version, CurrentVersion)
	}
	if s.HTTP.Addr != ":80" || s.DNS.Addr != ":53" {
		t.Errorf("listeners = %q %q, want :80 :53", s.HTTP.Addr, s.DNS.Addr)
	}
	if s.AccessPoint.Address != "192.168.1.1" || s.AccessPoint.DefaultSSID != "Wemos" {
		t.Errorf("access point = %+v", s.AccessPoint)
	}
	if s.AccessPoint.DefaultPass != "" {
		t.Error("settings mode access point should be open by default")
	}
	if s.Station.ConnectTimeout != 30*time.Second || s.Station.PollInterval != 500*time.Millisecond {
		t.Errorf("station = %+v", s.Station)
	}
	if s.Storage.Size != 128 || s.Pages.BufferSize != 4096 {
		t.Errorf("storage size %d, buffer %d", s.Storage.Size, s.Pages.BufferSize)
	}
	if errs := s.Validate(); len(errs) != 0 {
		t.Errorf("Default().Validate() = %v", errs)
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if !strings.Contains(dir, "wifiportal") {
		t.Errorf("GetConfigDir() = %v, should contain 'wifiportal'", dir)
	}

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error = %v", err)
	}
	if filepath.Base(path) != "settings.yaml" {
		t.Errorf("DefaultPath() = %v, should end with settings.yaml", path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.HTTP.Addr != ":80" {
		t.Errorf("missing file should give defaults, got %+v", s.HTTP)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `version: 1
http:
  addr: "127.0.0.1:8080"
station:
  connect_timeout: 5s
radio:
  backend: networkmanager
  interface: wlp2s0
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.HTTP.Addr != "127.0.0.1:8080" {
		t.Errorf("HTTP.Addr = %q", s.HTTP.Addr)
	}
	if s.Station.ConnectTimeout != 5*time.Second {
		t.Errorf("ConnectTimeout = %v, want 5s", s.Station.ConnectTimeout)
	}
	// Untouched keys keep defaults
	if s.Station.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", s.Station.PollInterval)
	}
	if s.Radio.Backend != BackendNetworkManager || s.Radio.Interface != "wlp2s0" {
		t.Errorf("Radio = %+v", s.Radio)
	}
	if s.AccessPoint.DefaultSSID != "Wemos" {
		t.Errorf("DefaultSSID = %q", s.AccessPoint.DefaultSSID)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"wrong version", "version: 2\n"},
		{"malformed yaml", "http: [\n"},
		{"bad duration", "version: 1\nstation:\n  connect_timeout: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "settings.yaml")

	s := Default()
	s.DNS.Addr = ":5353"
	s.Station.PollInterval = 250 * time.Millisecond
	s.Logging.Level = "debug"
	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# WiFi portal settings") {
		t.Error("saved file should start with the header comment")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.DNS.Addr != ":5353" || got.Station.PollInterval != 250*time.Millisecond || got.Logging.Level != "debug" {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"bad http addr", func(s *Settings) { s.HTTP.Addr = "80" }},
		{"bad dns addr", func(s *Settings) { s.DNS.Addr = "" }},
		{"ipv6 ap address", func(s *Settings) { s.AccessPoint.Address = "fe80::1" }},
		{"holey netmask", func(s *Settings) { s.AccessPoint.Netmask = "255.0.255.0" }},
		{"empty default ssid", func(s *Settings) { s.AccessPoint.DefaultSSID = "" }},
		{"zero timeout", func(s *Settings) { s.Station.ConnectTimeout = 0 }},
		{"poll longer than timeout", func(s *Settings) { s.Station.PollInterval = time.Minute }},
		{"offset past size", func(s *Settings) { s.Storage.Offset = 200 }},
		{"zero buffer", func(s *Settings) { s.Pages.BufferSize = 0 }},
		{"unknown backend", func(s *Settings) { s.Radio.Backend = "wpa" }},
		{"unknown restart", func(s *Settings) { s.Restart = "reboot" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.modify(s)
			if errs := s.Validate(); len(errs) != 1 {
				t.Errorf("Validate() = %v, want exactly one error", errs)
			}
		})
	}
}

func TestStoragePath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	s := Default()
	p, err := s.StoragePath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p) != "eeprom.bin" {
		t.Errorf("StoragePath() = %q", p)
	}

	s.Storage.Path = "/var/lib/wifiportal/eeprom.bin"
	if p, _ := s.StoragePath(); p != s.Storage.Path {
		t.Errorf("explicit StoragePath() = %q", p)
	}
}

func TestNetmask(t *testing.T) {
	s := Default()
	if ones, _ := s.Netmask().Size(); ones != 24 {
		t.Errorf("Netmask() prefix = %d, want 24", ones)
	}
}
