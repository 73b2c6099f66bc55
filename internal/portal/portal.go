package portal

import (
	"net/http"
	"net/url"

	"github.com/gorilla/schema"
	"go.uber.org/zap"

	"github.com/muurk/wifiportal/internal/logging"
	"github.com/muurk/wifiportal/internal/record"
)

// Saver persists the record.
type Saver interface {
	Save(record.Record) error
}

// savedBody acknowledges a mutating request before the restart.
const savedBody = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Saved</title></head>
<body><p>Saved. The device is restarting.</p></body></html>
`

// credentials is the form posted to /connect and /ap.
type credentials struct {
	SSID string `schema:"ssid"`
	Pass string `schema:"pass"`
}

type route struct {
	method  string
	path    string
	handler func(http.ResponseWriter, *http.Request) string
}

// Portal implements the configuration routes over one record. It is not
// safe for concurrent use; Server runs it from a single goroutine.
type Portal struct {
	rec     *record.Record
	store   Saver
	pages   *Pages
	decoder *schema.Decoder
	routes  []route
	restart bool
}

// New returns a Portal editing rec and persisting through store.
func New(rec *record.Record, store Saver, pages *Pages) *Portal {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	p := &Portal{
		rec:     rec,
		store:   store,
		pages:   pages,
		decoder: decoder,
	}
	p.routes = []route{
		{http.MethodGet, "/", p.handleRoot},
		{http.MethodPost, "/connect", p.handleConnect},
		{http.MethodPost, "/ap", p.handleHotspot},
		{http.MethodGet, "/reconf", p.handleReconf},
	}
	return p
}

// RestartRequested reports whether a handler saved a change that needs a
// restart to take effect.
func (p *Portal) RestartRequested() bool {
	return p.restart
}

// ServeHTTP dispatches on exact method and path. Everything else gets the
// error page with status 200.
func (p *Portal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	served := ""
	for _, rt := range p.routes {
		if r.Method == rt.method && r.URL.Path == rt.path {
			served = rt.handler(w, r)
			break
		}
	}
	if served == "" {
		served = p.send(w, ErrorPage)
	}
	logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, served)
}

func (p *Portal) handleRoot(w http.ResponseWriter, r *http.Request) string {
	if p.rec.Mode == record.ModeSettings {
		return p.send(w, ConfigPage)
	}
	return p.send(w, IndexPage)
}

func (p *Portal) handleConnect(w http.ResponseWriter, r *http.Request) string {
	return p.applyCredentials(w, r, record.ModeStation)
}

func (p *Portal) handleHotspot(w http.ResponseWriter, r *http.Request) string {
	return p.applyCredentials(w, r, record.ModeHotspot)
}

func (p *Portal) handleReconf(w http.ResponseWriter, r *http.Request) string {
	next := *p.rec
	next.Mode = record.ModeSettings
	return p.commit(w, next, "reconfigure requested")
}

// applyCredentials overwrites the credentials and mode from the request
// arguments, body or query string. Missing fields read as empty.
func (p *Portal) applyCredentials(w http.ResponseWriter, r *http.Request, mode record.Mode) string {
	var form credentials
	if err := r.ParseForm(); err != nil {
		logging.Warn("Unreadable form", zap.String("path", r.URL.Path), zap.Error(err))
	}
	if err := p.decoder.Decode(&form, arguments(r)); err != nil {
		logging.Warn("Undecodable form", zap.String("path", r.URL.Path), zap.Error(err))
	}

	next := *p.rec
	if next.Apply(mode, form.SSID, form.Pass) {
		logging.Warn("Credentials truncated",
			zap.Int("ssid_bytes", len(form.SSID)),
			zap.Int("pass_bytes", len(form.Pass)),
			zap.Int("max", record.MaxCredentialLen),
		)
	}
	return p.commit(w, next, "credentials submitted")
}

// commit persists next and, only if that worked, adopts it and asks for a
// restart.
func (p *Portal) commit(w http.ResponseWriter, next record.Record, reason string) string {
	if err := p.store.Save(next); err != nil {
		logging.Error("Failed to save configuration", zap.Error(err))
		writeHTML(w, []byte(InternalErrorBody))
		return "save failed"
	}

	logging.LogModeChange(p.rec.Mode.String(), next.Mode.String(), reason)
	*p.rec = next
	p.restart = true

	writeHTML(w, []byte(savedBody))
	return "restart"
}

// arguments flattens the parsed form to one value per key. A body value
// wins over the query string.
func arguments(r *http.Request) url.Values {
	args := make(url.Values, len(r.Form))
	for key := range r.Form {
		args.Set(key, r.Form.Get(key))
	}
	return args
}

func (p *Portal) send(w http.ResponseWriter, page string) string {
	writeHTML(w, p.pages.Content(page))
	return page
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
