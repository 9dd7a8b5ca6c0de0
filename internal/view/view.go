// Package view renders the HTML fragments served by the contact form: the
// widget, the admin settings form and the page layout wrapping them.
// Templates are pongo2 files embedded into the binary.
package view

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/flosch/pongo2/v6"

	"github.com/tbourn/go-contactform/internal/i18n"
)

// Template names.
const (
	Widget = "widget/contactform.html"
	Admin  = "admin/contactform.html"
	Layout = "layout.html"
)

//go:embed templates
var templateFS embed.FS

// Renderer renders a named template with vars, translating through tr.
type Renderer interface {
	Render(name string, tr i18n.Translator, vars map[string]any) (string, error)
}

// Pongo renders the embedded pongo2 templates.
type Pongo struct {
	set *pongo2.TemplateSet
}

// New loads the embedded templates.
func New() (*Pongo, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	loader, err := pongo2.NewHttpFileSystemLoader(http.FS(sub), "")
	if err != nil {
		return nil, err
	}
	return &Pongo{set: pongo2.NewSet("view", loader)}, nil
}

// Render implements Renderer. A "t" function and the active "lang" are
// always available to templates.
func (p *Pongo) Render(name string, tr i18n.Translator, vars map[string]any) (string, error) {
	tpl, err := p.set.FromFile(name)
	if err != nil {
		return "", fmt.Errorf("view %s: %w", name, err)
	}
	ctx := pongo2.Context{}
	for k, v := range vars {
		ctx[k] = v
	}
	ctx["t"] = func(key string) string {
		if tr == nil {
			return key
		}
		return tr.T(key)
	}
	if tr != nil {
		ctx["lang"] = tr.Lang()
	}
	return tpl.Execute(ctx)
}

// Page wraps an already rendered fragment in the site layout.
func (p *Pongo) Page(tr i18n.Translator, title, content string) (string, error) {
	return p.Render(Layout, tr, map[string]any{"title": title, "content": content})
}
