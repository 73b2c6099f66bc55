package portal

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/muurk/wifiportal/internal/record"
)

type memSaver struct {
	saved []record.Record
	err   error
}

func (m *memSaver) Save(rec record.Record) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, rec)
	return nil
}

func testPages() *Pages {
	return NewPages(fstest.MapFS{
		"config.html": {Data: []byte("CONFIG")},
		"index.html":  {Data: []byte("INDEX")},
		"error.html":  {Data: []byte("ERROR")},
	}, DefaultBufferSize)
}

func do(t *testing.T, h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("%s %s status = %d, want 200", method, target, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html" {
		t.Errorf("%s %s Content-Type = %q, want text/html", method, target, ct)
	}
	return w
}

func TestRootServesPageForMode(t *testing.T) {
	tests := []struct {
		mode record.Mode
		want string
	}{
		{record.ModeSettings, "CONFIG"},
		{record.ModeHotspot, "INDEX"},
		{record.ModeStation, "INDEX"},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			rec := record.Record{Mode: tt.mode}
			p := New(&rec, &memSaver{}, testPages())

			w := do(t, p, http.MethodGet, "/", nil)
			if w.Body.String() != tt.want {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.want)
			}
			if p.RestartRequested() {
				t.Error("GET / must not request a restart")
			}
		})
	}
}

func TestConnectPersistsBeforeRestart(t *testing.T) {
	rec := record.Default()
	saver := &memSaver{}
	p := New(&rec, saver, testPages())

	do(t, p, http.MethodPost, "/connect", url.Values{"ssid": {"X"}, "pass": {"Y"}})

	want := record.Record{SSID: "X", Pass: "Y", Mode: record.ModeStation}
	if len(saver.saved) != 1 || saver.saved[0] != want {
		t.Fatalf("saved = %+v, want [%+v]", saver.saved, want)
	}
	if rec != want {
		t.Errorf("in-memory record = %+v, want %+v", rec, want)
	}
	if !p.RestartRequested() {
		t.Error("/connect should request a restart")
	}
}

func TestHotspotPersists(t *testing.T) {
	rec := record.Record{SSID: "old", Pass: "oldpass", Mode: record.ModeStation}
	saver := &memSaver{}
	p := New(&rec, saver, testPages())

	do(t, p, http.MethodPost, "/ap", url.Values{"ssid": {"MyAP"}})

	want := record.Record{SSID: "MyAP", Pass: "", Mode: record.ModeHotspot}
	if len(saver.saved) != 1 || saver.saved[0] != want {
		t.Fatalf("saved = %+v, want [%+v]", saver.saved, want)
	}
	if !p.RestartRequested() {
		t.Error("/ap should request a restart")
	}
}

func TestCredentialsFromQueryString(t *testing.T) {
	tests := []struct {
		name   string
		target string
		form   url.Values
		want   record.Record
	}{
		{
			name:   "query only",
			target: "/connect?ssid=X&pass=Y",
			want:   record.Record{SSID: "X", Pass: "Y", Mode: record.ModeStation},
		},
		{
			name:   "body wins over query",
			target: "/connect?ssid=fromquery&pass=Y",
			form:   url.Values{"ssid": {"frombody"}},
			want:   record.Record{SSID: "frombody", Pass: "Y", Mode: record.ModeStation},
		},
		{
			name:   "hotspot from query",
			target: "/ap?ssid=MyAP",
			want:   record.Record{SSID: "MyAP", Mode: record.ModeHotspot},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record.Default()
			saver := &memSaver{}
			p := New(&rec, saver, testPages())

			do(t, p, http.MethodPost, tt.target, tt.form)

			if len(saver.saved) != 1 || saver.saved[0] != tt.want {
				t.Fatalf("saved = %+v, want [%+v]", saver.saved, tt.want)
			}
		})
	}
}

func TestCredentialsAreBounded(t *testing.T) {
	rec := record.Default()
	saver := &memSaver{}
	p := New(&rec, saver, testPages())

	long := strings.Repeat("s", 64)
	do(t, p, http.MethodPost, "/connect", url.Values{"ssid": {long}, "pass": {long}, "extra": {"ignored"}})

	if len(saver.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(saver.saved))
	}
	got := saver.saved[0]
	if len(got.SSID) != record.MaxCredentialLen || len(got.Pass) != record.MaxCredentialLen {
		t.Errorf("credentials not bounded: ssid %d bytes, pass %d bytes", len(got.SSID), len(got.Pass))
	}
}

func TestReconfFromAnyMode(t *testing.T) {
	for _, mode := range []record.Mode{record.ModeSettings, record.ModeHotspot, record.ModeStation} {
		t.Run(mode.String(), func(t *testing.T) {
			rec := record.Record{SSID: "keep", Pass: "me", Mode: mode}
			saver := &memSaver{}
			p := New(&rec, saver, testPages())

			do(t, p, http.MethodGet, "/reconf", nil)

			if len(saver.saved) != 1 || saver.saved[0].Mode != record.ModeSettings {
				t.Fatalf("saved = %+v, want mode SETTINGS", saver.saved)
			}
			if saver.saved[0].SSID != "keep" {
				t.Error("/reconf should leave the credentials alone")
			}
			if !p.RestartRequested() {
				t.Error("/reconf should request a restart")
			}
		})
	}
}

func TestUnmatchedServesErrorPage(t *testing.T) {
	tests := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/nope"},
		{http.MethodGet, "/generate_204"},
		{http.MethodGet, "/connect"},
		{http.MethodPost, "/"},
		{http.MethodPost, "/reconf"},
		{http.MethodGet, "/ap/"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := record.Default()
			saver := &memSaver{}
			p := New(&rec, saver, testPages())

			w := do(t, p, tt.method, tt.target, nil)
			if w.Body.String() != "ERROR" {
				t.Errorf("body = %q, want error page", w.Body.String())
			}
			if len(saver.saved) != 0 || p.RestartRequested() {
				t.Error("unmatched route must not save or restart")
			}
		})
	}
}

func TestSaveFailureKeepsRecord(t *testing.T) {
	rec := record.Record{SSID: "home", Pass: "pw", Mode: record.ModeHotspot}
	p := New(&rec, &memSaver{err: errors.New("flash worn out")}, testPages())

	w := do(t, p, http.MethodPost, "/connect", url.Values{"ssid": {"X"}, "pass": {"Y"}})

	if w.Body.String() != InternalErrorBody {
		t.Errorf("body = %q", w.Body.String())
	}
	if rec.SSID != "home" || rec.Mode != record.ModeHotspot {
		t.Errorf("record changed despite failed save: %+v", rec)
	}
	if p.RestartRequested() {
		t.Error("failed save must not request a restart")
	}
}

func TestMissingPage(t *testing.T) {
	rec := record.Default()
	pages := NewPages(fstest.MapFS{
		"config.html":     {Data: []byte("CONFIG")},
		"error.html/keep": {Data: []byte("x")}, // error.html is a directory
	}, 0)
	p := New(&rec, &memSaver{}, pages)

	rec.Mode = record.ModeStation
	if w := do(t, p, http.MethodGet, "/", nil); w.Body.String() != InternalErrorBody {
		t.Errorf("missing index body = %q", w.Body.String())
	}
	if w := do(t, p, http.MethodGet, "/missing", nil); w.Body.String() != InternalErrorBody {
		t.Errorf("directory error page body = %q", w.Body.String())
	}
}

func TestPagesBufferLimit(t *testing.T) {
	big := strings.Repeat("a", DefaultBufferSize+100)
	pages := NewPages(fstest.MapFS{"index.html": {Data: []byte(big)}}, DefaultBufferSize)

	content, err := pages.Read(IndexPage)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(content) != DefaultBufferSize {
		t.Errorf("read %d bytes, want %d", len(content), DefaultBufferSize)
	}
}

func TestEmbeddedPages(t *testing.T) {
	pages := NewPages(EmbeddedPages(), DefaultBufferSize)
	for _, name := range []string{ConfigPage, IndexPage, ErrorPage} {
		content, err := pages.Read(name)
		if err != nil {
			t.Errorf("Read(%s) error = %v", name, err)
			continue
		}
		if !strings.Contains(string(content), "<html>") {
			t.Errorf("%s does not look like HTML", name)
		}
	}

	config, _ := pages.Read(ConfigPage)
	for _, want := range []string{`action="/connect"`, `action="/ap"`, `name="ssid"`, `name="pass"`} {
		if !strings.Contains(string(config), want) {
			t.Errorf("config page missing %s", want)
		}
	}
}
