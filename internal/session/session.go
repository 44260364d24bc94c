package session

import (
	"net/http"
	"time"
)

// DefaultCookie is the cookie carrying the portal auth token
const DefaultCookie = "auth_token"

// DefaultMaxAge is how long an issued auth cookie lives
const DefaultMaxAge = 7 * 24 * time.Hour

// Checker decides whether a request carries a usable session
type Checker interface {
	HasValidSession(r *http.Request) bool
}

// CookieChecker treats the presence of a non-empty token cookie as a session.
// Token validation is left to the API backend.
type CookieChecker struct {
	Name string
}

// NewCookieChecker creates a presence checker for the named cookie
func NewCookieChecker(name string) *CookieChecker {
	if name == "" {
		name = DefaultCookie
	}
	return &CookieChecker{Name: name}
}

// HasValidSession implements Checker
func (c *CookieChecker) HasValidSession(r *http.Request) bool {
	return Token(r, c.Name) != ""
}

// Token returns the token stored in the named cookie, or ""
func Token(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetToken writes the auth cookie
func SetToken(w http.ResponseWriter, name, token string, maxAge time.Duration, secure bool) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearToken expires the auth cookie
func ClearToken(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})
}
