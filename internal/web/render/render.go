// Package render renders the HTML pages from the embedded pongo2 templates.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

// Page templates.
const (
	Home     = "home.html"
	Create   = "create.html"
	NotFound = "notfound.html"
	Error    = "error.html"
)

//go:embed templates/*.html
var embedded embed.FS

var (
	ugcOnce   sync.Once
	ugcPolicy *bluemonday.Policy
)

func ugc() *bluemonday.Policy {
	ugcOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
	})
	return ugcPolicy
}

// Sanitize strips user supplied HTML down to basic formatting.
func Sanitize(s string) string {
	return ugc().Sanitize(s)
}

// filterUGC emits its input sanitized and unescaped.
func filterUGC(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsSafeValue(Sanitize(in.String())), nil
}

func registerFilters() {
	if !pongo2.FilterExists("ugc") {
		_ = pongo2.RegisterFilter("ugc", filterUGC)
	}
}

type Renderer struct {
	mu sync.RWMutex

	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

// New creates a renderer over the embedded templates.
func New() (*Renderer, error) {
	templates, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, fmt.Errorf("render: open templates: %w", err)
	}
	return NewFromFS(templates)
}

// NewFromFS creates a renderer over the templates in fsys. Every template
// is parsed up front so a broken template fails at startup.
func NewFromFS(fsys fs.FS) (*Renderer, error) {
	registerFilters()
	r := &Renderer{
		set:       pongo2.NewSet("recipebox", pongo2.NewFSLoader(fsys)),
		templates: make(map[string]*pongo2.Template),
	}

	for _, name := range []string{Home, Create, NotFound, Error} {
		if _, err := r.template(name); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Renderer) template(name string) (*pongo2.Template, error) {
	r.mu.RLock()
	if tmpl, ok := r.templates[name]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if tmpl, ok := r.templates[name]; ok {
		return tmpl, nil
	}

	tmpl, err := r.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("render: load template %q: %w", name, err)
	}
	r.templates[name] = tmpl
	return tmpl, nil
}

// Render executes the named template into a byte slice.
func (r *Renderer) Render(name string, data pongo2.Context) ([]byte, error) {
	tmpl, err := r.template(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(data, &buf); err != nil {
		return nil, fmt.Errorf("render: execute %q: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Page renders the named template and writes it with status. Nothing is
// written if rendering fails.
func (r *Renderer) Page(w http.ResponseWriter, status int, name string, data pongo2.Context) error {
	if r == nil {
		return errors.New("render: nil renderer")
	}
	body, err := r.Render(name, data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}
