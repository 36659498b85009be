package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are read from the access token for display only. The storefront
// never verifies the signature; the backend does that on every call.
type Claims struct {
	jwt.RegisteredClaims
	UserID   any    `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	return claims, nil
}

func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(c.ExpiresAt.Time)
}

func (c *Claims) DisplayName() string {
	switch {
	case c.Username != "":
		return c.Username
	case c.UserID != nil:
		return fmt.Sprintf("user #%v", c.UserID)
	case c.Subject != "":
		return c.Subject
	}
	return ""
}

// Identity returns the display name of the logged-in user, if r carries a
// readable, unexpired access token.
func Identity(r Reader, now time.Time) (string, bool) {
	tok, ok := r.AccessToken()
	if !ok {
		return "", false
	}
	claims, err := ParseClaims(tok)
	if err != nil || claims.Expired(now) {
		return "", false
	}
	name := claims.DisplayName()
	if name == "" {
		name = "account"
	}
	return name, true
}
