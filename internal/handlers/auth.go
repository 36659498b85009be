package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mobileshop/internal/orders"
	"github.com/Skotchmaster/mobileshop/internal/session"
	"github.com/Skotchmaster/mobileshop/internal/view"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

var (
	loginErrors = map[string]string{
		"1":       "Invalid username or password.",
		"network": "Could not reach the server. Please try again.",
	}
	registerErrors = map[string]string{
		"1": "Registration failed. Please try a different username.",
	}
)

const msgMissingCredentials = "Please enter your username and password."

type AuthHandler struct {
	Auth   *session.Manager
	Orders *orders.Service
	Pages  Pages
}

type credentials struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

func (h *AuthHandler) LoginPage(c echo.Context, r session.Reader) error {
	page := h.Pages.New(c, r, "Login", view.AuthData{})
	page.Error = errorCode(c, loginErrors)
	return c.Render(http.StatusOK, "login", page)
}

func (h *AuthHandler) Login(c echo.Context, w session.Writer) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "login")

	var req credentials
	if err := c.Bind(&req); err != nil {
		return seeOther(c, "/login?error=1")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		page := h.Pages.New(c, w, "Login", view.AuthData{Username: req.Username})
		page.Error = msgMissingCredentials
		return c.Render(http.StatusOK, "login", page)
	}

	if err := h.Auth.Login(ctx, w, req.Username, req.Password); err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			return seeOther(c, "/login?error=1")
		}
		l.Warn("login_error", "error", err)
		return seeOther(c, "/login?error=network")
	}
	return seeOther(c, "/account")
}

func (h *AuthHandler) RegisterPage(c echo.Context, r session.Reader) error {
	page := h.Pages.New(c, r, "Register", view.AuthData{})
	page.Error = errorCode(c, registerErrors)
	return c.Render(http.StatusOK, "register", page)
}

func (h *AuthHandler) Register(c echo.Context, w session.Writer) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "register")

	var req credentials
	if err := c.Bind(&req); err != nil {
		return seeOther(c, "/register?error=1")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Password == "" {
		page := h.Pages.New(c, w, "Register", view.AuthData{Username: req.Username, Email: req.Email})
		page.Error = msgMissingCredentials
		return c.Render(http.StatusOK, "register", page)
	}

	if err := h.Auth.Register(ctx, req.Username, req.Email, req.Password); err != nil {
		l.Warn("register_failed", "error", err)
		return seeOther(c, "/register?error=1")
	}
	l.Info("register_success")
	return seeOther(c, "/login")
}

// Logout deletes the auth cookies whether or not they exist.
func (h *AuthHandler) Logout(c echo.Context, w session.Writer) error {
	h.Auth.Logout(w)
	return seeOther(c, "/")
}

func (h *AuthHandler) Account(c echo.Context, r session.Reader) error {
	_, loggedIn := r.AccessToken()
	data := view.AccountData{LoggedIn: loggedIn}
	if loggedIn {
		data.Orders = h.Orders.History(c.Request().Context(), r)
	}
	return c.Render(http.StatusOK, "account", h.Pages.New(c, r, "Account", data))
}
