// Package session owns the two browser-held identities of a shopper: the
// anonymous cart session and the access/refresh token pair.
//
// Reading is allowed anywhere through a Reader. Mutation requires a Writer,
// which is only handed out by Binder.Action or Run, so page rendering cannot
// create a cart session or touch tokens.
package session

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/mobileshop/internal/models"
)

const (
	CartCookie    = "cart_session"
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	CartSessionHeader = "X-Cart-Session"
)

type Reader interface {
	CartSession() (string, bool)
	AccessToken() (string, bool)
	RefreshToken() (string, bool)
}

type Writer interface {
	Reader
	// GetOrCreateCartSession returns the existing cart session or persists a
	// new random one. Repeated calls return the same token.
	GetOrCreateCartSession() string
	SaveTokens(tokens models.TokenPair)
	ClearTokens()
}

type reader struct {
	store Store
}

// NewReader wraps store for read-only access.
func NewReader(store Store) Reader { return &reader{store: store} }

func (r *reader) CartSession() (string, bool)  { return r.store.Get(CartCookie) }
func (r *reader) AccessToken() (string, bool)  { return r.store.Get(AccessCookie) }
func (r *reader) RefreshToken() (string, bool) { return r.store.Get(RefreshCookie) }

type writer struct {
	reader
}

func newWriter(store Store) *writer { return &writer{reader{store: store}} }

func (w *writer) GetOrCreateCartSession() string {
	if id, ok := w.store.Get(CartCookie); ok {
		return id
	}
	id := uuid.NewString()
	w.store.Set(CartCookie, id)
	return id
}

func (w *writer) SaveTokens(tokens models.TokenPair) {
	w.store.Set(AccessCookie, tokens.Access)
	w.store.Set(RefreshCookie, tokens.Refresh)
}

// ClearTokens is unconditional; clearing absent tokens is not an error.
func (w *writer) ClearTokens() {
	w.store.Delete(AccessCookie)
	w.store.Delete(RefreshCookie)
}

// Run executes fn inside a write boundary over store.
func Run(store Store, fn func(Writer) error) error {
	return fn(newWriter(store))
}

// CartHeaders returns the X-Cart-Session header for token, or nil.
func CartHeaders(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{CartSessionHeader: token}
}

// RequestHeaders attaches whatever identity r carries: the cart session and,
// when logged in, the bearer token.
func RequestHeaders(r Reader) map[string]string {
	h := map[string]string{}
	if id, ok := r.CartSession(); ok {
		h[CartSessionHeader] = id
	}
	if tok, ok := r.AccessToken(); ok {
		h["Authorization"] = "Bearer " + tok
	}
	if len(h) == 0 {
		return nil
	}
	return h
}
