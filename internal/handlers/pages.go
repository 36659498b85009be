package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mobileshop/internal/session"
	"github.com/Skotchmaster/mobileshop/internal/view"
	"github.com/Skotchmaster/mobileshop/pkg/middleware/csrf"
)

// Pages fills the data every rendered page shares.
type Pages struct {
	StoreName string
	Now       func() time.Time
}

func (p Pages) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p Pages) New(c echo.Context, r session.Reader, title string, data any) view.Page {
	pg := view.Page{
		Title:     title,
		StoreName: p.StoreName,
		CSRFToken: csrf.Token(c),
		Data:      data,
	}
	if r != nil {
		if name, ok := session.Identity(r, p.now()); ok {
			pg.User = name
		}
	}
	return pg
}

// errorCode maps the ?error= query value to a message using the page's table.
func errorCode(c echo.Context, messages map[string]string) string {
	code := c.QueryParam("error")
	if code == "" {
		return ""
	}
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}

func seeOther(c echo.Context, to string) error {
	return c.Redirect(http.StatusSeeOther, to)
}

func notFound(c echo.Context, p Pages, r session.Reader) error {
	return c.Render(http.StatusNotFound, "notfound", p.New(c, r, "Not found", nil))
}
