package session

import "github.com/labstack/echo/v4"

type PageFunc func(c echo.Context, r Reader) error

type ActionFunc func(c echo.Context, w Writer) error

// Binder adapts session-aware handlers to echo. Page handlers get a Reader
// over the request cookies; Action handlers get a Writer that emits
// Set-Cookie headers.
type Binder struct {
	SecureCookies bool
}

func (b Binder) Page(h PageFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h(c, NewReader(NewCookieStore(c, b.SecureCookies)))
	}
}

func (b Binder) Action(h ActionFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h(c, newWriter(NewCookieStore(c, b.SecureCookies)))
	}
}
