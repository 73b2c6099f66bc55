package portalclient

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/wifiportal/internal/fault"
	"github.com/muurk/wifiportal/internal/portal"
	"github.com/muurk/wifiportal/internal/record"
)

type memSaver struct{ saved []record.Record }

func (m *memSaver) Save(rec record.Record) error {
	m.saved = append(m.saved, rec)
	return nil
}

func TestNewClient(t *testing.T) {
	client := NewClient("192.168.1.1", 80)

	if client.BaseURL != "http://192.168.1.1:80" {
		t.Errorf("BaseURL = %s, want http://192.168.1.1:80", client.BaseURL)
	}
	if client.HTTPClient == nil {
		t.Error("HTTPClient should not be nil")
	}
	if client.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", client.MaxRetries, DefaultMaxRetries)
	}
}

func TestNewClientWithURL(t *testing.T) {
	client := NewClientWithURL("http://192.168.1.1:8080/")
	if client.BaseURL != "http://192.168.1.1:8080" {
		t.Errorf("BaseURL = %s, want trailing slash trimmed", client.BaseURL)
	}
}

func TestSetTimeoutAndRetry(t *testing.T) {
	client := NewClient("192.168.1.1", 80)
	client.SetTimeout(5 * time.Second)
	client.SetRetry(5, 2*time.Second)

	if client.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.HTTPClient.Timeout)
	}
	if client.MaxRetries != 5 || client.RetryDelay != 2*time.Second {
		t.Errorf("retry = %d/%v", client.MaxRetries, client.RetryDelay)
	}
}

func TestAgainstPortal(t *testing.T) {
	tests := []struct {
		name string
		call func(*Client) error
		want record.Record
	}{
		{
			name: "connect",
			call: func(c *Client) error { return c.Connect("HomeNet", "secret") },
			want: record.Record{SSID: "HomeNet", Pass: "secret", Mode: record.ModeStation},
		},
		{
			name: "hotspot",
			call: func(c *Client) error { return c.Hotspot("MyAP", "password1") },
			want: record.Record{SSID: "MyAP", Pass: "password1", Mode: record.ModeHotspot},
		},
		{
			name: "open hotspot",
			call: func(c *Client) error { return c.Apply(record.ModeHotspot, "Open", "") },
			want: record.Record{SSID: "Open", Mode: record.ModeHotspot},
		},
		{
			name: "reconfigure",
			call: func(c *Client) error { return c.Reconfigure() },
			want: record.Record{SSID: "old", Pass: "oldpass", Mode: record.ModeSettings},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record.Record{SSID: "old", Pass: "oldpass", Mode: record.ModeStation}
			saver := &memSaver{}
			p := portal.New(&rec, saver, portal.NewPages(portal.EmbeddedPages(), 0))
			server := httptest.NewServer(p)
			defer server.Close()

			if err := tt.call(NewClientWithURL(server.URL)); err != nil {
				t.Fatalf("call error = %v", err)
			}
			if len(saver.saved) != 1 || saver.saved[0] != tt.want {
				t.Errorf("saved = %+v, want [%+v]", saver.saved, tt.want)
			}
			if !p.RestartRequested() {
				t.Error("portal should have requested a restart")
			}
		})
	}
}

func TestPostsFormFields(t *testing.T) {
	var got url.Values
	var path, contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		got = r.PostForm
		_, _ = io.WriteString(w, "ok")
	}))
	defer server.Close()

	if err := NewClientWithURL(server.URL).Connect("X", "Y"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if path != "/connect" || contentType != "application/x-www-form-urlencoded" {
		t.Errorf("request = %s %s", path, contentType)
	}
	if got.Get("ssid") != "X" || got.Get("pass") != "Y" {
		t.Errorf("form = %v", got)
	}
}

func TestPing(t *testing.T) {
	tests := []struct {
		mode         record.Mode
		wantSettings bool
	}{
		{record.ModeSettings, true},
		{record.ModeStation, false},
		{record.ModeHotspot, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			rec := record.Record{Mode: tt.mode}
			p := portal.New(&rec, &memSaver{}, portal.NewPages(portal.EmbeddedPages(), 0))
			server := httptest.NewServer(p)
			defer server.Close()

			settings, err := NewClientWithURL(server.URL).Ping()
			if err != nil {
				t.Fatalf("Ping() error = %v", err)
			}
			if settings != tt.wantSettings {
				t.Errorf("Ping() settings = %v, want %v", settings, tt.wantSettings)
			}
		})
	}
}

func TestPingRetriesNetworkErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			// Drop the connection without answering
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("response writer cannot hijack")
				return
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		_, _ = io.WriteString(w, "index")
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	client.SetRetry(3, time.Millisecond)

	if _, err := client.Ping(); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if calls.Load() < 3 {
		t.Errorf("server saw %d requests, want at least 3", calls.Load())
	}
}

func TestInternalErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Internal server error")
	}))
	defer server.Close()

	err := NewClientWithURL(server.URL).Connect("X", "Y")
	if fault.KindOf(err) != fault.KindStorageWrite {
		t.Errorf("Connect() error = %v, want storage write fault", err)
	}
}

func TestUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	if err := NewClientWithURL(server.URL).Reconfigure(); !fault.IsNetwork(err) {
		t.Errorf("Reconfigure() error = %v, want network fault", err)
	}
}

func TestValidationBlocksRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	if err := client.Connect("", "pw"); !fault.IsValidation(err) {
		t.Errorf("empty ssid error = %v", err)
	}
	if err := client.Hotspot("AP", "short"); !fault.IsValidation(err) {
		t.Errorf("short hotspot pass error = %v", err)
	}
	if err := client.Apply(record.Mode(9), "a", "b"); !fault.IsValidation(err) {
		t.Errorf("bad mode error = %v", err)
	}
	if calls.Load() != 0 {
		t.Error("invalid input must not reach the portal")
	}
}

func TestValidateCredentials(t *testing.T) {
	long := strings.Repeat("x", record.MaxCredentialLen+1)

	tests := []struct {
		name  string
		mode  record.Mode
		ssid  string
		pass  string
		wantN int
	}{
		{"valid station", record.ModeStation, "HomeNet", "pw", 0},
		{"open hotspot", record.ModeHotspot, "AP", "", 0},
		{"wpa hotspot", record.ModeHotspot, "AP", "12345678", 0},
		{"short hotspot pass", record.ModeHotspot, "AP", "1234567", 1},
		{"short station pass is fine", record.ModeStation, "Net", "1", 0},
		{"empty ssid", record.ModeStation, "", "", 1},
		{"long ssid and pass", record.ModeStation, long, long, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errs := ValidateCredentials(tt.mode, tt.ssid, tt.pass); len(errs) != tt.wantN {
				t.Errorf("ValidateCredentials() = %v, want %d error(s)", errs, tt.wantN)
			}
		})
	}
}
