package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muurk/wifiportal/internal/boot"
	"github.com/muurk/wifiportal/internal/record"
	"github.com/muurk/wifiportal/internal/settings"
)

func TestRunOptionsApply(t *testing.T) {
	s := settings.Default()
	runOptions{
		radio:       settings.BackendNetworkManager,
		httpAddr:    ":8080",
		dnsAddr:     ":5353",
		restart:     settings.RestartExec,
		noDiscovery: true,
	}.apply(s)

	if s.Radio.Backend != settings.BackendNetworkManager || s.HTTP.Addr != ":8080" || s.DNS.Addr != ":5353" {
		t.Errorf("overrides not applied: %+v", s)
	}
	if s.Restart != settings.RestartExec || s.Discovery.Enabled {
		t.Errorf("restart/discovery = %s/%v", s.Restart, s.Discovery.Enabled)
	}

	// Unset flags keep the file's values
	s = settings.Default()
	runOptions{}.apply(s)
	if s.HTTP.Addr != ":80" || !s.Discovery.Enabled {
		t.Errorf("empty options changed settings: %+v", s)
	}
}

func TestDefaultPortalURL(t *testing.T) {
	s := settings.Default()
	if got := defaultPortalURL(s); got != "http://192.168.1.1:80" {
		t.Errorf("defaultPortalURL() = %s", got)
	}

	s.HTTP.Addr = "0.0.0.0:8080"
	if got := defaultPortalURL(s); got != "http://192.168.1.1:8080" {
		t.Errorf("defaultPortalURL() = %s", got)
	}
}

func TestResetAndInspect(t *testing.T) {
	s := settings.Default()
	s.Storage.Path = filepath.Join(t.TempDir(), "eeprom.bin")

	rec, status, err := inspect(s)
	if err != nil || status != "Fresh" || rec != record.Default() {
		t.Fatalf("inspect() on a new image = %+v, %s, %v", rec, status, err)
	}

	st, err := boot.OpenStore(s)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	if err := st.Save(record.Record{SSID: "HomeNet", Pass: "pw", Mode: record.ModeStation}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	st.Close()

	got, err := resetStore(s, false)
	if err != nil {
		t.Fatalf("resetStore() error = %v", err)
	}
	want := record.Record{SSID: "HomeNet", Pass: "pw", Mode: record.ModeSettings}
	if got != want {
		t.Errorf("resetStore() = %+v, want %+v", got, want)
	}

	if rec, status, _ := inspect(s); status != "Loaded" || rec != want {
		t.Errorf("after reset = %+v (%s)", rec, status)
	}

	if got, _ := resetStore(s, true); got != record.Default() {
		t.Errorf("wipe = %+v, want defaults", got)
	}
}

func TestInspectDoesNotCreateImage(t *testing.T) {
	s := settings.Default()
	s.Storage.Path = filepath.Join(t.TempDir(), "home", "eeprom.bin")

	rec, status, err := inspect(s)
	if err != nil || status != "Fresh" || rec != record.Default() {
		t.Fatalf("inspect() on a missing image = %+v, %s, %v", rec, status, err)
	}
	if _, err := os.Stat(s.Storage.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("inspect() created %s (stat error = %v)", s.Storage.Path, err)
	}
}

func TestNextStep(t *testing.T) {
	if !strings.Contains(nextStep(record.ModeStation), "scan") {
		t.Error("station hint should point at scan")
	}
	if nextStep(record.ModeSettings) == nextStep(record.ModeHotspot) {
		t.Error("settings and hotspot hints should differ")
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	if !strings.HasPrefix(out.String(), "wifiportal ") {
		t.Errorf("version output = %q", out.String())
	}
}
