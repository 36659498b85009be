// Package view renders storefront pages from embedded templates.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mobileshop/internal/models"
	"github.com/Skotchmaster/mobileshop/internal/money"
	"github.com/Skotchmaster/mobileshop/internal/orders"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data every template receives; Data is page specific.
type Page struct {
	Title     string
	StoreName string
	CSRFToken string
	User      string
	CartCount int
	Error     string
	Data      any
}

type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"price":    money.Format,
	"discount": money.DiscountPercent,
	"minor":    func(v int64) string { return money.Format(money.FromMinor(v)) },
	"status":   orders.DisplayStatus,
	"shortID": func(id string) string {
		if len(id) > 8 {
			return id[:8]
		}
		return id
	},
	"itemLabel": func(i models.OrderItem) string { return i.Label() },
	"above":     func(a, b money.Amount) bool { return a.GreaterThan(b) },
	"upper":     strings.ToUpper,
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

// New parses every page template together with the shared layout.
func New() (*Renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, n := range names {
		base := strings.TrimSuffix(path.Base(n), ".html")
		if base == "layout" {
			continue
		}
		t, err := template.New(base).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", n)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", base, err)
		}
		r.pages[base] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
