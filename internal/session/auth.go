package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Skotchmaster/mobileshop/internal/apiclient"
	"github.com/Skotchmaster/mobileshop/internal/models"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Manager struct {
	api *apiclient.Client
}

func NewManager(api *apiclient.Client) *Manager {
	return &Manager{api: api}
}

// Login exchanges credentials for a token pair and persists it. A rejected
// login persists nothing.
func (m *Manager) Login(ctx context.Context, w Writer, username, password string) error {
	l := logging.FromContext(ctx).With("svc", "session")

	var tokens models.TokenPair
	err := m.api.Do(ctx, "/api/auth/token/", apiclient.Options{
		Method: http.MethodPost,
		Body:   map[string]string{"username": username, "password": password},
	}, &tokens)
	if err != nil {
		if status := apiclient.StatusOf(err); status != 0 {
			l.Warn("login_failed", "status", status)
			return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return fmt.Errorf("login: %w", err)
	}
	if tokens.Access == "" {
		l.Warn("login_failed", "reason", "empty access token")
		return ErrInvalidCredentials
	}

	w.SaveTokens(tokens)
	l.Info("login_success")
	return nil
}

func (m *Manager) Logout(w Writer) {
	w.ClearTokens()
}

func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	err := m.api.Do(ctx, "/api/auth/register/", apiclient.Options{
		Method: http.MethodPost,
		Body:   map[string]string{"username": username, "email": email, "password": password},
	}, nil)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// FetchWithAuth GETs path with the bearer token from r. Without a token it
// fails with ErrNotAuthenticated and makes no call; API errors pass through.
func FetchWithAuth[T any](ctx context.Context, m *Manager, r Reader, path string) (T, error) {
	token, ok := r.AccessToken()
	if !ok {
		var zero T
		return zero, ErrNotAuthenticated
	}
	return apiclient.Get[T](ctx, m.api, path, apiclient.Options{
		Headers: map[string]string{"Authorization": "Bearer " + token},
	})
}
