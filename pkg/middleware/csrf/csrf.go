// Package csrf guards the storefront's form posts and payment relay calls
// with a double-submit cookie.
//
// Every page response carries the token (cookie, response header and template
// value). An unsafe request must echo it in the header or the form field and
// must come from one of the storefront's own origins. Pages post with Origin
// or Referer set, so a request with neither, and no same-origin fetch
// metadata, is refused.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

// ContextKey is where the current token is stored for templates.
const ContextKey = "csrf_token"

var (
	ErrOrigin = errors.New("csrf: request is not from a storefront origin")
	ErrToken  = errors.New("csrf: token missing or mismatched")
)

type Config struct {
	CookieName string
	HeaderName string
	FormField  string

	CookiePath string
	Secure     bool
	SameSite   http.SameSite
	MaxAge     time.Duration

	// AllowedOrigins lists extra scheme://host origins accepted alongside the
	// request's own host, such as the public URL behind a proxy.
	AllowedOrigins []string
	// SkipPaths are exempt from the check, e.g. health checks.
	SkipPaths []string
}

func DefaultConfig() Config {
	return Config{
		CookieName: "XSRF-TOKEN",
		HeaderName: "X-CSRF-Token",
		FormField:  "csrf_token",
		CookiePath: "/",
		SameSite:   http.SameSiteLaxMode,
		MaxAge:     24 * time.Hour,
	}
}

func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.FormField == "" {
		cfg.FormField = def.FormField
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = def.CookiePath
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}
	return cfg
}

func Middleware(cfg Config) echo.MiddlewareFunc {
	cfg = cfg.withDefaults()

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			allowed[strings.ToLower(u.Scheme+"://"+u.Host)] = struct{}{}
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if _, ok := skip[req.URL.Path]; ok {
				return next(c)
			}

			token := readCookie(req, cfg.CookieName)
			if token == "" {
				var err error
				if token, err = newToken(32); err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to create CSRF token")
				}
				setCookie(c, cfg, token)
			}
			c.Set(ContextKey, token)

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				c.Response().Header().Set(cfg.HeaderName, token)
				return next(c)
			}

			if err := verify(c, cfg, allowed, token); err != nil {
				logging.FromContext(req.Context()).Warn("csrf_rejected",
					"path", req.URL.Path, "origin", req.Header.Get("Origin"), "error", err)
				return echo.NewHTTPError(http.StatusForbidden, "This page has expired. Please reload and try again.").
					SetInternal(err)
			}
			return next(c)
		}
	}
}

// Token returns the token stored by Middleware, or "" outside of it.
func Token(c echo.Context) string {
	s, _ := c.Get(ContextKey).(string)
	return s
}

func verify(c echo.Context, cfg Config, allowed map[string]struct{}, token string) error {
	req := c.Request()
	if !fromStorefront(req, allowed) {
		return ErrOrigin
	}
	// JSON relay calls send the header; pages post the form field.
	provided := req.Header.Get(cfg.HeaderName)
	if provided == "" {
		provided = c.FormValue(cfg.FormField)
	}
	if provided == "" || subtle.ConstantTimeCompare([]byte(token), []byte(provided)) != 1 {
		return ErrToken
	}
	return nil
}

func fromStorefront(r *http.Request, allowed map[string]struct{}) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return r.Header.Get("Sec-Fetch-Site") == "same-origin"
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Scheme, schemeOf(r)) && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	_, ok := allowed[strings.ToLower(u.Scheme+"://"+u.Host)]
	return ok
}

func newToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Scripts read the token from the page, never from the cookie.
func setCookie(c echo.Context, cfg Config, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     cfg.CookiePath,
		Secure:   cfg.Secure,
		HttpOnly: true,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		SameSite: cfg.SameSite,
	})
}

func readCookie(req *http.Request, name string) string {
	c, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func schemeOf(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
