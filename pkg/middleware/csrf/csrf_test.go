package csrf

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho() *echo.Echo {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"https://shop.example.in"}
	return newEchoWith(cfg)
}

func newEchoWith(cfg Config) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(cfg))
	e.GET("/form", func(c echo.Context) error { return c.String(http.StatusOK, Token(c)) })
	e.POST("/form", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	return e
}

func TestMiddleware_GetIssuesToken(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/form", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Body.String()
	assert.NotEmpty(t, token)
	assert.Equal(t, token, rec.Header().Get("X-CSRF-Token"))
	assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), "XSRF-TOKEN="+token)
}

func TestMiddleware_PostRequiresMatchingToken(t *testing.T) {
	e := newEcho()

	tests := []struct {
		name      string
		field     string
		origin    string
		referer   string
		fetchSite string
		want      int
	}{
		{name: "valid form field", field: "tok", origin: "http://example.com", want: http.StatusNoContent},
		{name: "wrong token", field: "nope", origin: "http://example.com", want: http.StatusForbidden},
		{name: "empty token", field: "", origin: "http://example.com", want: http.StatusForbidden},
		{name: "cross origin", field: "tok", origin: "http://evil.test", want: http.StatusForbidden},
		{name: "trusted public origin", field: "tok", origin: "https://shop.example.in", want: http.StatusNoContent},
		{name: "referer only", field: "tok", referer: "http://example.com/checkout", want: http.StatusNoContent},
		{name: "same-origin fetch metadata", field: "tok", fetchSite: "same-origin", want: http.StatusNoContent},
		{name: "cross-site fetch metadata", field: "tok", fetchSite: "cross-site", want: http.StatusForbidden},
		{name: "missing origin", field: "tok", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"csrf_token": {tt.field}}
			req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
			req.Host = "example.com"
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			if tt.fetchSite != "" {
				req.Header.Set("Sec-Fetch-Site", tt.fetchSite)
			}
			req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMiddleware_HeaderToken(t *testing.T) {
	e := newEcho()
	req := httptest.NewRequest(http.MethodPost, "/form", nil)
	req.Host = "example.com"
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("X-CSRF-Token", "tok")
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddleware_SkipPathsAndRejectionMessage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipPaths = []string{"/form"}
	e := newEchoWith(cfg)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/form", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	e = newEcho()
	req := httptest.NewRequest(http.MethodPost, "/form", nil)
	req.Host = "example.com"
	req.Header.Set("Origin", "http://example.com")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please reload and try again.")
	assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), "HttpOnly")
}
