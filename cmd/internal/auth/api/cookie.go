package authapi

import (
	"net/http"
	"strings"
	"time"
)

// CookieName carries the session bearer token.
const CookieName = "session"

// CookieBinding maps a session token to and from the session cookie.
type CookieBinding struct {
	Secure bool
}

// NewCookieBinding returns the binding for the given environment.
func NewCookieBinding(production bool) CookieBinding {
	return CookieBinding{Secure: production}
}

// Bind returns a cookie carrying tok that expires with the session.
func (b CookieBinding) Bind(tok string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		Expires:  expiresAt.UTC(),
		HttpOnly: true,
		Secure:   b.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Unbind returns a cookie that clears the session cookie on the client.
func (b CookieBinding) Unbind() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   b.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// TokenFrom returns the session token presented on r, or "".
func (b CookieBinding) TokenFrom(r *http.Request) string {
	if r == nil {
		return ""
	}
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
