package portal

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/wifiportal/internal/fault"
	"github.com/muurk/wifiportal/internal/logging"
)

// DefaultBufferSize bounds how much of a page is served.
const DefaultBufferSize = 4096

// InternalErrorBody replaces a page that cannot be read. It is served with
// status 200 like any other page.
const InternalErrorBody = "Internal server error"

// Page names.
const (
	ConfigPage = "/config.html"
	IndexPage  = "/index.html"
	ErrorPage  = "/error.html"
)

//go:embed www/*.html
var www embed.FS

// EmbeddedPages returns the built-in pages.
func EmbeddedPages() fs.FS {
	sub, err := fs.Sub(www, "www")
	if err != nil {
		panic(err) // fixed path, cannot fail
	}
	return sub
}

// Pages reads static pages from a read-only filesystem.
type Pages struct {
	fsys  fs.FS
	limit int
}

// NewPages serves pages from fsys, reading at most limit bytes of each.
// A non-positive limit means DefaultBufferSize.
func NewPages(fsys fs.FS, limit int) *Pages {
	if limit <= 0 {
		limit = DefaultBufferSize
	}
	return &Pages{fsys: fsys, limit: limit}
}

// Read returns up to the buffer limit of the page. Content past the limit
// is dropped.
func (p *Pages) Read(name string) ([]byte, error) {
	path := strings.TrimPrefix(name, "/")

	f, err := p.fsys.Open(path)
	if err != nil {
		return nil, fault.NewMissingPageError(name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fault.NewMissingPageError(name, err)
	}
	if info.IsDir() {
		return nil, fault.NewMissingPageError(name, fmt.Errorf("is a directory"))
	}

	content, err := io.ReadAll(io.LimitReader(f, int64(p.limit)))
	if err != nil {
		return nil, fault.NewMissingPageError(name, err)
	}
	if info.Size() > int64(p.limit) {
		logging.Warn("Page truncated",
			zap.String("page", name),
			zap.Int64("size", info.Size()),
			zap.Int("limit", p.limit),
		)
	}
	return content, nil
}

// Content returns the page, or InternalErrorBody if it cannot be read.
func (p *Pages) Content(name string) []byte {
	content, err := p.Read(name)
	if err != nil {
		logging.Warn("Page unavailable", zap.String("page", name), zap.Error(err))
		return []byte(InternalErrorBody)
	}
	return content
}
