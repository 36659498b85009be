package session

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

// Store is the key-value state the session lives in: browser cookies in
// production, a map in tests.
type Store interface {
	Get(name string) (string, bool)
	Set(name, value string)
	Delete(name string)
}

// CookieStore reads request cookies and writes Set-Cookie headers. Values set
// or deleted during the request shadow the incoming cookies so a handler
// always reads its own writes.
type CookieStore struct {
	c       echo.Context
	secure  bool
	pending map[string]*string
}

func NewCookieStore(c echo.Context, secure bool) *CookieStore {
	return &CookieStore{c: c, secure: secure, pending: make(map[string]*string)}
}

func (s *CookieStore) Get(name string) (string, bool) {
	if v, ok := s.pending[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	ck, err := s.c.Cookie(name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (s *CookieStore) Set(name, value string) {
	s.c.SetCookie(createCookie(name, value, s.secure))
	s.pending[name] = &value
}

func (s *CookieStore) Delete(name string) {
	s.c.SetCookie(deleteCookie(name, s.secure))
	s.pending[name] = nil
}

// Browser-session cookies readable by client scripts; expiry is the
// backend's concern.
func createCookie(name, value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func deleteCookie(name string, secure bool) *http.Cookie {
	c := createCookie(name, "", secure)
	c.MaxAge = -1
	return c
}

// MemoryStore is an in-process Store that counts mutations.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
	writes int
}

func NewMemoryStore(initial map[string]string) *MemoryStore {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

func (m *MemoryStore) Get(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	return v, ok && v != ""
}

func (m *MemoryStore) Set(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	m.writes++
}

func (m *MemoryStore) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
	m.writes++
}

// Writes reports how many Set and Delete calls the store has seen.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
